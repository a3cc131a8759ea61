package fx

import (
	"fmt"
	"math"
	"strings"
)

// zeroDecimalCurrencies lists ISO 4217 currencies without a minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
	"CLP": true,
}

// MinorDigits reports the number of minor unit digits of a currency.
func MinorDigits(code string) int {
	if zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(code))] {
		return 0
	}
	return 2
}

// RoundMinor rounds an amount to the currency's minor unit, half away from
// zero.
func RoundMinor(amount float64, code string) float64 {
	pow := math.Pow(10, float64(MinorDigits(code)))
	return math.Round(amount*pow) / pow
}

// FormatAmount renders an amount with the currency's minor unit precision,
// e.g. "150.00 USD" or "23450 JPY".
func FormatAmount(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return fmt.Sprintf("%.*f %s", MinorDigits(code), RoundMinor(amount, code), code)
}
