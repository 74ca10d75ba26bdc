package identity

import (
	"regexp"
	"strings"
)

// PAN shape: five letters, four digits, one letter.
var panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

// NormalizePAN trims surrounding whitespace and uppercases.
func NormalizePAN(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidatePANNumber reports whether s, after normalization, is exactly ten
// characters in the fixed PAN shape.
func ValidatePANNumber(s string) bool {
	pan := NormalizePAN(s)
	if len(pan) != 10 {
		return false
	}
	return panPattern.MatchString(pan)
}
