package identity

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	twelveDigits = regexp.MustCompile(`[0-9]{12}`)
	nonAlnum     = regexp.MustCompile(`[^A-Z0-9]`)
)

// ExtractAadhaarNumber finds the Aadhaar candidate in raw OCR text. All
// whitespace (including newlines from PDF text layers) and hyphens are
// stripped first so grouped renderings ("1234 5678 9012") still match even
// when the number wraps a line. When several twelve-digit runs appear, the
// last one wins: the card number is printed near the bottom of the document,
// and earlier runs are typically enrollment or reference numbers. Returns ""
// when no candidate exists.
func ExtractAadhaarNumber(rawText string) string {
	if rawText == "" {
		return ""
	}
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, rawText)
	matches := twelveDigits.FindAllString(clean, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

// ExtractPANNumber finds the first whitespace-delimited token that reduces to
// the PAN shape once uppercased and stripped of stray punctuation. Returns ""
// when no token matches.
func ExtractPANNumber(rawText string) string {
	for _, word := range strings.Fields(rawText) {
		candidate := nonAlnum.ReplaceAllString(strings.ToUpper(word), "")
		if panPattern.MatchString(candidate) {
			return candidate
		}
	}
	return ""
}
