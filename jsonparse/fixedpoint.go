package jsonparse

import "fmt"

// ParseFixedPoint lexes a decimal literal (optional leading '-', digits, at
// most one '.') and returns value * 10^decimalShift as an integer.
// Fractional digits beyond decimalShift are truncated, not rounded:
// ParseFixedPoint("12.345", 2) == 1234.
func ParseFixedPoint(s string, decimalShift int) (int64, error) {
	if decimalShift < 0 {
		return 0, fmt.Errorf("%w: negative decimal shift %d", ErrBadNumber, decimalShift)
	}
	if len(s) == 0 {
		return 0, fmt.Errorf("%w: empty input", ErrBadNumber)
	}

	i := 0
	negative := false
	if s[0] == '-' {
		negative = true
		i++
	}
	if i >= len(s) {
		return 0, fmt.Errorf("%w: no digits in %q", ErrBadNumber, s)
	}

	var value int64
	digits := 0
	fracDigits := -1
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
			if fracDigits >= decimalShift && fracDigits != -1 {
				// excess precision is truncated
				continue
			}
			value = value*10 + int64(c-'0')
			if fracDigits != -1 {
				fracDigits++
			}
		case c == '.':
			if fracDigits != -1 {
				return 0, fmt.Errorf("%w: second decimal point in %q", ErrBadNumber, s)
			}
			fracDigits = 0
		default:
			return 0, fmt.Errorf("%w: unexpected byte %q in %q", ErrBadNumber, c, s)
		}
	}
	if digits == 0 {
		return 0, fmt.Errorf("%w: no digits in %q", ErrBadNumber, s)
	}

	if fracDigits == -1 {
		fracDigits = 0
	}
	for ; fracDigits < decimalShift; fracDigits++ {
		value *= 10
	}
	if negative {
		value = -value
	}
	return value, nil
}
