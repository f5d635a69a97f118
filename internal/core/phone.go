package core

import "strings"

// digitsOnly strips every non-digit rune.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether s contains a plausible phone number:
// 10 to 15 digits once separators and punctuation are stripped.
func ValidPhone(s string) bool {
	n := len(digitsOnly(s))
	return n >= 10 && n <= 15
}

// WhatsAppAddress formats a phone number as a WhatsApp E.164 address,
// e.g. "whatsapp:+15551234567". Bare 10-digit numbers are assumed to be
// US/Canada and get a leading 1. Returns "" for an empty input.
func WhatsAppAddress(s string) string {
	if s == "" {
		return ""
	}
	digits := digitsOnly(s)
	if len(digits) == 10 {
		digits = "1" + digits
	}
	return "whatsapp:+" + digits
}
