package plate

import (
	"strings"
	"unicode"
)

// NormalizePlate trims, uppercases and drops spaces and dashes: " abc-123 " -> "ABC123".
func NormalizePlate(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, upper)
}

// CleanOCRText uppercases raw OCR output and keeps only A-Z and 0-9.
func CleanOCRText(raw string) string {
	upper := strings.ToUpper(raw)
	return strings.Map(func(r rune) rune {
		if isLetter(r) || isDigit(r) {
			return r
		}
		return -1
	}, upper)
}

func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return r >= 'A' && r <= 'Z' }

func countDigits(text string) (count int) {
	for _, r := range text {
		if isDigit(r) {
			count++
		}
	}
	return count
}

func countLetters(text string) (count int) {
	for _, r := range text {
		if isLetter(r) {
			count++
		}
	}
	return count
}

// HasLettersAndDigits reports whether text mixes both classes.
func HasLettersAndDigits(text string) bool {
	return countDigits(text) > 0 && countLetters(text) > 0
}
