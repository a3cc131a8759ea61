// Package intent turns free text into a conversational intent with plain
// keyword rules. It is the deterministic first pass of the router; the
// language model only refines turns this package cannot place.
package intent

import (
	"strings"

	contractx "github.com/agilbank/teller/agent/contract"
)

var (
	exitWords     = []string{"exit", "quit", "bye", "goodbye", "leave"}
	cancelWords   = []string{"cancel", "stop", "abort", "nevermind"}
	interviewWord = []string{"interview", "questionnaire"}
	exchangeWords = []string{"exchange", "convert", "conversion", "currency", "currencies", "rate", "rates"}
	increaseWords = []string{"increase", "raise"}
	inquiryWords  = []string{"limit"}
	affirmWords   = []string{"yes", "yeah", "yep", "sure", "ok", "okay", "accept", "absolutely"}
	denyWords     = []string{"no", "nope", "nah", "decline", "later"}
	greetingWords = []string{"hi", "hello", "hey", "morning", "afternoon", "evening"}
)

var interviewPhrases = []string{
	"update my score",
	"improve my score",
	"recalculate my score",
	"new score",
}

var exchangePhrases = []string{
	"exchange rate",
}

// Classify maps one customer turn onto an intent. Amount and currency codes
// are extracted regardless of the matched kind, so a bare "5000" or "EUR"
// still carries its value to whichever handler owns the turn.
func Classify(text string) contractx.Intent {
	lower := strings.ToLower(text)
	tokens := tokenize(lower)

	in := contractx.Intent{Kind: classifyKind(lower, tokens)}
	if amount, ok := ParseAmount(text); ok {
		in.Amount = &amount
	}
	in.Currencies = ParseCurrencies(text)
	return in
}

// classifyKind applies the keyword rules in precedence order. Exit and cancel
// outrank everything, exchange outranks the credit intents so that "what is
// the USD limit for exchange" does not land in the credit handler.
func classifyKind(lower string, tokens []string) contractx.IntentKind {
	switch {
	case matchAny(tokens, exitWords):
		return contractx.IntentExit
	case matchAny(tokens, cancelWords) || containsPhrase(lower, "never mind"):
		return contractx.IntentCancel
	case matchAny(tokens, interviewWord) || anyPhrase(lower, interviewPhrases):
		return contractx.IntentInterview
	case matchAny(tokens, exchangeWords) || anyPhrase(lower, exchangePhrases) || len(ParseCurrencies(lower)) >= 2:
		return contractx.IntentExchange
	case matchAny(tokens, increaseWords):
		return contractx.IntentLimitIncrease
	case matchAny(tokens, inquiryWords):
		return contractx.IntentLimitInquiry
	case matchAny(tokens, affirmWords):
		return contractx.IntentAffirm
	case matchAny(tokens, denyWords):
		return contractx.IntentDeny
	case matchAny(tokens, greetingWords):
		return contractx.IntentGreeting
	default:
		return contractx.IntentUnknown
	}
}

// tokenize splits lowered text into alphanumeric words.
func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !isLetter(r) && !isDigit(r)
	})
}

func matchAny(tokens []string, words []string) bool {
	for _, tok := range tokens {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}

func anyPhrase(lower string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(lower, p) {
			return true
		}
	}
	return false
}

func containsPhrase(lower, phrase string) bool {
	return strings.Contains(" "+strings.Join(tokenize(lower), " ")+" ", " "+phrase+" ")
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
