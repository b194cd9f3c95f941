// Package phone normalizes the 10-digit national phone numbers patients log
// in with.
package phone

import (
	"errors"
	"regexp"
	"strings"
)

// Length is the number of digits in a national number.
const Length = 10

var ErrInvalid = errors.New("phone: number must have 10 digits")

var digitsRe = regexp.MustCompile(`\d+`)

// Normalize strips formatting and an optional leading country digit
// ("+7", "8" or "+1") and returns the 10-digit national number.
func Normalize(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrInvalid
	}
	digits := strings.Join(digitsRe.FindAllString(value, -1), "")
	if len(digits) == Length+1 && strings.ContainsRune("178", rune(digits[0])) {
		digits = digits[1:]
	}
	if len(digits) != Length {
		return "", ErrInvalid
	}
	return digits, nil
}

// Mask hides all but the last four digits, for logging.
func Mask(number string) string {
	if len(number) <= 4 {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
