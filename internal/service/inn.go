package service

import (
	"regexp"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
)

// innPattern finds a bare 10- or 12-digit run. Digits are ASCII, so \b
// is reliable here even in Cyrillic text.
var innPattern = regexp.MustCompile(`\b\d{10}\b|\b\d{12}\b`)

// ExtractINN returns the first INN-shaped digit sequence in text, or ""
// when there is none.
func ExtractINN(text string) string {
	return innPattern.FindString(text)
}

// ValidateINN verifies the FNS check digits: one checksum for 10-digit
// legal-entity INNs, two for 12-digit individual INNs.
func ValidateINN(inn string) error {
	switch len(inn) {
	case 10, 12:
	default:
		return &domain.ErrValidation{Field: "inn", Message: "must be 10 or 12 digits"}
	}
	digits := make([]int, len(inn))
	for i, r := range inn {
		if r < '0' || r > '9' {
			return &domain.ErrValidation{Field: "inn", Message: "must contain only digits"}
		}
		digits[i] = int(r - '0')
	}

	if len(digits) == 10 {
		if checkDigit(digits, []int{2, 4, 10, 3, 5, 9, 4, 6, 8}) != digits[9] {
			return &domain.ErrValidation{Field: "inn", Message: "checksum mismatch"}
		}
		return nil
	}

	n11 := checkDigit(digits, []int{7, 2, 4, 10, 3, 5, 9, 4, 6, 8})
	n12 := checkDigit(digits, []int{3, 7, 2, 4, 10, 3, 5, 9, 4, 6, 8})
	if n11 != digits[10] || n12 != digits[11] {
		return &domain.ErrValidation{Field: "inn", Message: "checksum mismatch"}
	}
	return nil
}

func checkDigit(digits, coefficients []int) int {
	var sum int
	for i, c := range coefficients {
		sum += digits[i] * c
	}
	return sum % 11 % 10
}
