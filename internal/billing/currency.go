package billing

import (
	"fmt"
	"strings"

	"rental-service/internal/apperr"
)

// supportedCurrencies is the closed currency domain: major world
// currencies plus the regional currencies companies onboard with.
// Expanding it is a deliberate, versioned change, never a runtime
// fallback.
var supportedCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "JPY": {}, "CHF": {},
	"CAD": {}, "AUD": {}, "CNY": {}, "INR": {}, "SGD": {},
	"AED": {}, "SAR": {}, "QAR": {}, "KWD": {}, "BHD": {}, "OMR": {},
	"EGP": {}, "JOD": {}, "LBP": {}, "MAD": {}, "TND": {},
	"NGN": {}, "KES": {}, "ZAR": {}, "GHS": {}, "TZS": {}, "UGX": {},
	"THB": {}, "MYR": {}, "IDR": {}, "PHP": {}, "VND": {}, "PKR": {}, "BDT": {},
	"TRY": {}, "BRL": {}, "MXN": {}, "PLN": {}, "SEK": {}, "NOK": {}, "DKK": {},
}

// NormalizeCurrency upper-cases and trims a currency code without
// validating it.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCurrency checks a code against the supported domain.
func ValidateCurrency(code string) error {
	normalized := NormalizeCurrency(code)
	if _, ok := supportedCurrencies[normalized]; !ok {
		return fmt.Errorf("%w: %q", apperr.ErrUnsupportedCurrency, code)
	}
	return nil
}

// SupportedCurrencies returns the currency domain for display purposes.
func SupportedCurrencies() []string {
	codes := make([]string, 0, len(supportedCurrencies))
	for code := range supportedCurrencies {
		codes = append(codes, code)
	}
	return codes
}
