// Package identity implements the pure identifier logic of the verification
// pipeline: Verhoeff checksum validation for Aadhaar numbers, structural
// validation for PAN codes, display masking, and extraction of identifier
// candidates from raw OCR text.
package identity

// Verhoeff dihedral group D5 tables. The multiplication table d composes two
// digits, the permutation table p is applied by digit position (cycling every
// eight positions), and inv maps a digit to its group inverse. Validation
// only needs d and p; inv is required to generate a trailing check digit.
var verhoeffD = [10][10]int{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	{1, 2, 3, 4, 0, 6, 7, 8, 9, 5},
	{2, 3, 4, 0, 1, 7, 8, 9, 5, 6},
	{3, 4, 0, 1, 2, 8, 9, 5, 6, 7},
	{4, 0, 1, 2, 3, 9, 5, 6, 7, 8},
	{5, 9, 8, 7, 6, 0, 4, 3, 2, 1},
	{6, 5, 9, 8, 7, 1, 0, 4, 3, 2},
	{7, 6, 5, 9, 8, 2, 1, 0, 4, 3},
	{8, 7, 6, 5, 9, 3, 2, 1, 0, 4},
	{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
}

var verhoeffP = [8][10]int{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	{1, 5, 7, 6, 2, 8, 3, 0, 9, 4},
	{5, 8, 0, 3, 7, 9, 6, 1, 4, 2},
	{8, 9, 1, 6, 0, 4, 3, 5, 2, 7},
	{9, 4, 5, 3, 1, 2, 6, 8, 7, 0},
	{4, 2, 8, 6, 5, 7, 3, 9, 0, 1},
	{2, 7, 9, 3, 8, 0, 6, 4, 1, 5},
	{7, 0, 4, 6, 9, 1, 3, 2, 5, 8},
}

var verhoeffInv = [10]int{0, 4, 3, 2, 1, 5, 6, 7, 8, 9}

// verhoeffValid reports whether digits carries a correct Verhoeff trailing
// check digit. Digits are processed right to left; the number is valid iff
// the running checksum ends at the group identity.
func verhoeffValid(digits string) bool {
	c := 0
	for i := 0; i < len(digits); i++ {
		ch := digits[len(digits)-1-i]
		if ch < '0' || ch > '9' {
			return false
		}
		c = verhoeffD[c][verhoeffP[i%8][ch-'0']]
	}
	return c == 0
}

// VerhoeffCheckDigit computes the trailing check digit for a digit string.
// Not used on the validation path, but kept alongside the tables so the pair
// stays consistent.
func VerhoeffCheckDigit(digits string) (byte, bool) {
	c := 0
	for i := 0; i < len(digits); i++ {
		ch := digits[len(digits)-1-i]
		if ch < '0' || ch > '9' {
			return 0, false
		}
		c = verhoeffD[c][verhoeffP[(i+1)%8][ch-'0']]
	}
	return byte('0' + verhoeffInv[c]), true
}
