// Package llm is the optional language backend of the teller: one OpenAI
// compatible client used to triage free-text turns and to rewrite
// deterministic reply drafts in a persona voice. The engine runs fully
// without it; every call here is best-effort.
package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/agilbank/teller/agent/contract"
)

// Personas select the system prompt and any per-persona model override.
const (
	PersonaTriage    = "triage"
	PersonaCredit    = "credit"
	PersonaInterview = "interview"
	PersonaExchange  = "exchange"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"gpt-4o-mini"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"600"`
	Temperature        float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.4"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`

	TriageModel    string `envconfig:"TRIAGE_MODEL" split_words:"true"`
	CreditModel    string `envconfig:"CREDIT_MODEL" split_words:"true"`
	InterviewModel string `envconfig:"INTERVIEW_MODEL" split_words:"true"`
	ExchangeModel  string `envconfig:"EXCHANGE_MODEL" split_words:"true"`

	TriageTemperature    float64 `envconfig:"TRIAGE_TEMPERATURE" split_words:"true" default:"-1"`
	CreditTemperature    float64 `envconfig:"CREDIT_TEMPERATURE" split_words:"true" default:"-1"`
	InterviewTemperature float64 `envconfig:"INTERVIEW_TEMPERATURE" split_words:"true" default:"-1"`
	ExchangeTemperature  float64 `envconfig:"EXCHANGE_TEMPERATURE" split_words:"true" default:"-1"`
}

// Enabled reports whether an API key is configured. Without one the teller
// answers with the deterministic drafts alone.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if c.MaxCompletionToken <= 0 {
		return fmt.Errorf("%w: max completion tokens must be positive", contractx.ErrValidation)
	}
	return nil
}

// ModelFor resolves the model name and temperature for one persona. A
// negative temperature override means "use the default".
func (c Config) ModelFor(persona string) (string, float64) {
	model := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch persona {
	case PersonaTriage:
		if v := strings.TrimSpace(c.TriageModel); v != "" {
			model = v
		}
		if c.TriageTemperature >= 0 {
			temp = c.TriageTemperature
		}
	case PersonaCredit:
		if v := strings.TrimSpace(c.CreditModel); v != "" {
			model = v
		}
		if c.CreditTemperature >= 0 {
			temp = c.CreditTemperature
		}
	case PersonaInterview:
		if v := strings.TrimSpace(c.InterviewModel); v != "" {
			model = v
		}
		if c.InterviewTemperature >= 0 {
			temp = c.InterviewTemperature
		}
	case PersonaExchange:
		if v := strings.TrimSpace(c.ExchangeModel); v != "" {
			model = v
		}
		if c.ExchangeTemperature >= 0 {
			temp = c.ExchangeTemperature
		}
	}
	return model, temp
}
