package intent

import (
	"strconv"
	"strings"
	"time"

	"github.com/agilbank/teller/bank"
)

var currencyCodes = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "AUD": true,
	"CAD": true, "CHF": true, "CNY": true, "INR": true, "BRL": true,
	"MXN": true, "ARS": true, "CLP": true, "COP": true, "PEN": true,
	"KRW": true, "SEK": true, "NOK": true, "DKK": true, "PLN": true,
	"CZK": true, "HUF": true, "ZAR": true, "NZD": true, "SGD": true,
	"HKD": true, "THB": true, "ILS": true, "AED": true, "SAR": true,
}

var currencyNames = map[string]string{
	"dollar": "USD", "dollars": "USD", "buck": "USD", "bucks": "USD",
	"euro": "EUR", "euros": "EUR",
	"pound": "GBP", "pounds": "GBP", "sterling": "GBP", "quid": "GBP",
	"yen": "JPY",
	"reais": "BRL", "reals": "BRL",
	"yuan": "CNY", "renminbi": "CNY",
	"rupee": "INR", "rupees": "INR",
	"franc": "CHF", "francs": "CHF",
}

// ParseAmount extracts the first monetary amount from free text. Thousands
// separators are tolerated ("5,000.50"); the first well formed number wins.
func ParseAmount(text string) (float64, bool) {
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isDigit(runes[i]) {
			continue
		}

		var b strings.Builder
		j := i
		for j < len(runes) {
			r := runes[j]
			if isDigit(r) {
				b.WriteRune(r)
				j++
				continue
			}
			if (r == ',' || r == '.') && j+1 < len(runes) && isDigit(runes[j+1]) {
				if r == '.' {
					b.WriteRune('.')
				}
				j++
				continue
			}
			break
		}

		if value, err := strconv.ParseFloat(b.String(), 64); err == nil {
			return value, true
		}
		i = j
	}
	return 0, false
}

// ParseCurrencies extracts ISO currency codes in order of appearance. Bare
// codes ("USD") and common currency names ("dollars") are both recognized.
func ParseCurrencies(text string) []string {
	var out []string
	for _, tok := range tokenize(strings.ToLower(text)) {
		if code, ok := currencyNames[tok]; ok {
			out = append(out, code)
			continue
		}
		if len(tok) == 3 {
			if upper := strings.ToUpper(tok); currencyCodes[upper] {
				out = append(out, upper)
			}
		}
	}
	return out
}

// ParseDate extracts a strict YYYY-MM-DD date token.
func ParseDate(text string) (time.Time, bool) {
	for _, field := range strings.Fields(text) {
		field = strings.Trim(field, ".,;:!?")
		if len(field) != 10 || field[4] != '-' || field[7] != '-' {
			continue
		}
		if t, err := time.Parse("2006-01-02", field); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseIdentifier extracts an eleven digit customer identifier, tolerating
// the usual separator characters between digit groups.
func ParseIdentifier(text string) (string, bool) {
	var digits strings.Builder
	for _, r := range text {
		if isDigit(r) {
			digits.WriteRune(r)
		}
	}

	id, err := bank.NormalizeIdentifier(digits.String())
	if err != nil {
		return "", false
	}
	return id, true
}

// ParseYesNo reads an affirmative or negative answer. The second return is
// false when the text commits to neither.
func ParseYesNo(text string) (bool, bool) {
	lower := strings.ToLower(text)
	tokens := tokenize(lower)

	for _, tok := range tokens {
		for _, w := range affirmWords {
			if tok == w {
				return true, true
			}
		}
	}
	for _, tok := range tokens {
		for _, w := range denyWords {
			if tok == w {
				return false, true
			}
		}
	}
	if containsPhrase(lower, "do not") || containsPhrase(lower, "don t") {
		return false, true
	}
	return false, false
}

var numberWords = map[string]int{
	"zero": 0, "none": 0, "no": 0,
	"one": 1, "single": 1,
	"two": 2, "couple": 2,
	"three": 3,
	"four":  4,
	"five":  5,
	"six":   6,
}

// ParseDependents extracts a dependent count from digits or small number
// words. "no dependents" counts as zero.
func ParseDependents(text string) (int, bool) {
	for _, tok := range tokenize(strings.ToLower(text)) {
		if n, ok := numberWords[tok]; ok {
			return n, true
		}
		if len(tok) <= 2 && allDigits(tok) {
			if n, err := strconv.Atoi(tok); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// ParseEmployment maps a free text answer to an employment status. The
// compound and negated forms come first: "unemployed" and "self-employed"
// both contain "employed" and must not match it.
func ParseEmployment(text string) (bank.Employment, bool) {
	lower := strings.ToLower(text)
	switch {
	case hasAny(lower, "self-employed", "self employed", "freelance", "autonomous", "contractor", "own business"):
		return bank.EmploymentSelfEmployed, true
	case hasAny(lower, "unemployed", "not working", "no job", "jobless", "without a job", "between jobs"):
		return bank.EmploymentUnemployed, true
	case hasAny(lower, "retired", "pension"):
		return bank.EmploymentRetired, true
	case hasAny(lower, "employed", "employee", "salaried", "formal", "full time", "full-time"):
		return bank.EmploymentEmployed, true
	default:
		return "", false
	}
}

func hasAny(lower string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return true
}
