package intent

import (
	"testing"

	contractx "github.com/agilbank/teller/agent/contract"
)

func TestClassifyKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want contractx.IntentKind
	}{
		{"hello", contractx.IntentGreeting},
		{"hi there", contractx.IntentGreeting},
		{"what is my limit?", contractx.IntentLimitInquiry},
		{"check my credit limit", contractx.IntentLimitInquiry},
		{"increase my limit to 5000", contractx.IntentLimitIncrease},
		{"I want to raise my limit", contractx.IntentLimitIncrease},
		{"I want a credit interview", contractx.IntentInterview},
		{"can you update my score", contractx.IntentInterview},
		{"convert 100 USD to EUR", contractx.IntentExchange},
		{"what's the dollar rate?", contractx.IntentExchange},
		{"100 dollars in euros", contractx.IntentExchange},
		{"cancel", contractx.IntentCancel},
		{"never mind", contractx.IntentCancel},
		{"bye", contractx.IntentExit},
		{"ok quit", contractx.IntentExit},
		{"yes please", contractx.IntentAffirm},
		{"no thanks", contractx.IntentDeny},
		{"the weather is nice today", contractx.IntentUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()

			if got := Classify(tc.text).Kind; got != tc.want {
				t.Fatalf("Classify(%q).Kind = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestClassifyCancelOutranksDomainWords(t *testing.T) {
	t.Parallel()

	got := Classify("cancel the interview")
	if got.Kind != contractx.IntentCancel {
		t.Fatalf("Kind = %q, want cancel", got.Kind)
	}
}

func TestClassifyCarriesExtractions(t *testing.T) {
	t.Parallel()

	got := Classify("convert 250.50 USD to BRL")
	if got.Kind != contractx.IntentExchange {
		t.Fatalf("Kind = %q, want exchange", got.Kind)
	}
	if got.Amount == nil || *got.Amount != 250.50 {
		t.Fatalf("Amount = %v, want 250.50", got.Amount)
	}
	if len(got.Currencies) != 2 || got.Currencies[0] != "USD" || got.Currencies[1] != "BRL" {
		t.Fatalf("Currencies = %v", got.Currencies)
	}
}

func TestClassifyBareValueTurn(t *testing.T) {
	t.Parallel()

	got := Classify("5000")
	if got.Kind != contractx.IntentUnknown {
		t.Fatalf("Kind = %q, want unknown", got.Kind)
	}
	if got.Amount == nil || *got.Amount != 5000 {
		t.Fatalf("a bare number must still carry its amount, got %v", got.Amount)
	}
}
