package identity

import "strings"

const maskedPlaceholder = "****"

// NormalizeDigits strips every non-digit rune.
func NormalizeDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateAadhaarNumber reports whether s normalizes to exactly twelve digits
// with a correct Verhoeff checksum. Malformed input is simply invalid, never
// an error.
func ValidateAadhaarNumber(s string) bool {
	digits := NormalizeDigits(s)
	if len(digits) != 12 {
		return false
	}
	return verhoeffValid(digits)
}

// MaskAadhaar renders a display-safe form of an Aadhaar number: the last four
// digits behind a fixed prefix. Inputs with fewer than four digits collapse
// to a placeholder.
func MaskAadhaar(s string) string {
	digits := NormalizeDigits(s)
	if len(digits) < 4 {
		return maskedPlaceholder
	}
	return "XXXX-XXXX-" + digits[len(digits)-4:]
}
