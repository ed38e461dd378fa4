package utils

import (
	"regexp"
	"strings"
)

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// FormatPhoneE164 normalizes a free-form phone number to E.164.
// US numbers without a country code get +1 prefixed. Returns the
// cleaned best effort when the input cannot be fully normalized.
func FormatPhoneE164(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	hadPlus := strings.HasPrefix(trimmed, "+")

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case hadPlus:
		return "+" + d
	case len(d) == 10:
		return "+1" + d
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return "+" + d
	case d == "":
		return ""
	default:
		return "+" + d
	}
}

// IsValidE164 reports whether the number is a well-formed E.164 string.
func IsValidE164(number string) bool {
	return e164Pattern.MatchString(number)
}
