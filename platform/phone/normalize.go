// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion = "BR"
	countryPrefix = "55"
)

// Normalize formats a raw phone number into the +55-prefixed form the CRM
// expects. The function is total: it never fails, it only returns the
// best-effort normalized form, or an empty string when the input carries no
// digits. Normalizing an already-normalized number returns the same value.
func Normalize(input string) string {
	trimmed := strings.TrimSpace(input)
	digits := stripNonDigits(trimmed)
	if digits == "" {
		return ""
	}

	if number, err := phonenumbers.Parse(trimmed, defaultRegion); err == nil {
		if phonenumbers.IsValidNumber(number) {
			return phonenumbers.Format(number, phonenumbers.E164)
		}
	}

	// Fallback heuristic for numbers the parser rejects: a bare 10/11 digit
	// national number gets the country prefix, a 12/13 digit number already
	// carrying it only gets the plus sign.
	switch {
	case (len(digits) == 10 || len(digits) == 11) && !strings.HasPrefix(digits, countryPrefix):
		return "+" + countryPrefix + digits
	case strings.HasPrefix(digits, countryPrefix) && (len(digits) == 12 || len(digits) == 13):
		return "+" + digits
	default:
		return "+" + digits
	}
}

func stripNonDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
