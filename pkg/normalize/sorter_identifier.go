package normalize

import (
	"strings"
	"unicode"
)

// Identifier returns the canonical comparison key for a phone number or
// email-like handle. Display code must keep using the raw identifier.
//
//	"+1 (317) 555-1234" -> "3175551234"
//	"Someone@Example.com" -> "someone@example.com"
func Identifier(identifier string) string {
	if IsEmailLike(identifier) {
		return strings.ToLower(identifier)
	}

	digits := Digits(identifier)
	if digits == "" {
		// system handles like "urn:biz:..." would otherwise collide on ""
		return strings.ToLower(identifier)
	}
	if len(digits) == 11 && digits[0] == '1' {
		return digits[1:]
	}
	return digits
}

// IsEmailLike reports whether the identifier is treated as an email address.
func IsEmailLike(identifier string) bool {
	return strings.Contains(identifier, "@")
}

// Digits strips every non-digit character.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsShortCode reports whether a phone-style identifier is a 5-6 digit
// business/SMS short code.
func IsShortCode(identifier string) bool {
	if IsEmailLike(identifier) {
		return false
	}
	n := len(Digits(identifier))
	return n >= 5 && n <= 6
}
