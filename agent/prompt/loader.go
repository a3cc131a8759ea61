package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/triage.txt
	triageRaw string

	//go:embed template/credit.txt
	creditRaw string

	//go:embed template/interview.txt
	interviewRaw string

	//go:embed template/exchange.txt
	exchangeRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Triage    string
	Credit    string
	Interview string
	Exchange  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Triage:    strings.TrimSpace(triageRaw),
		Credit:    strings.TrimSpace(creditRaw),
		Interview: strings.TrimSpace(interviewRaw),
		Exchange:  strings.TrimSpace(exchangeRaw),
	}
}
