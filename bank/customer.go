// Package bank holds the banking records the conversation engine decides
// against: the customer directory, the score-limit table, and the append-only
// ledger of limit increase requests.
package bank

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CustomerRecord is one row of the customer directory. Identifier is the
// 11-digit national id the customer authenticates with; it never changes.
// Score is mutated only by the interview flow, Limit only by credit decisions.
type CustomerRecord struct {
	Identifier string    `json:"identifier"`
	Name       string    `json:"name"`
	BirthDate  time.Time `json:"birth_date"`
	Score      int       `json:"score"`
	Limit      float64   `json:"limit"`
}

const identifierLength = 11

var ErrInvalidIdentifier = errors.New("identifier is invalid")

// NormalizeIdentifier strips the usual punctuation from an identifier and
// validates the result: exactly 11 digits, not all the same digit.
func NormalizeIdentifier(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '/' || r == ' ':
			// separator noise
		default:
			return "", fmt.Errorf("%w: unexpected character %q", ErrInvalidIdentifier, r)
		}
	}

	id := b.String()
	if len(id) != identifierLength {
		return "", fmt.Errorf("%w: want %d digits, got %d", ErrInvalidIdentifier, identifierLength, len(id))
	}
	if allSameDigit(id) {
		return "", fmt.Errorf("%w: repeated digit sequence", ErrInvalidIdentifier)
	}
	return id, nil
}

func allSameDigit(id string) bool {
	for i := 1; i < len(id); i++ {
		if id[i] != id[0] {
			return false
		}
	}
	return true
}

// MaskIdentifier renders an identifier for logs and replies, keeping only the
// first three and last two digits visible.
func MaskIdentifier(id string) string {
	if len(id) != identifierLength {
		return "***"
	}
	return id[:3] + ".***.***-" + id[9:]
}

// SameBirthDate compares two timestamps on the calendar day only.
func SameBirthDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
