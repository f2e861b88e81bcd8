package usecase

import (
	"strings"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
)

// ValidateAmount rejects non-positive minor-unit amounts.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return domainErrors.ErrInvalidAmount
	}
	return nil
}

// ValidateDestination rejects blank payment destinations. The value itself is opaque.
func ValidateDestination(destination string) error {
	if strings.TrimSpace(destination) == "" {
		return domainErrors.ErrInvalidDestination
	}
	return nil
}

// NormalizeCurrency upper-cases a three letter ISO 4217 style code.
func NormalizeCurrency(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return "", domainErrors.ErrInvalidCurrency
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return "", domainErrors.ErrInvalidCurrency
		}
	}
	return code, nil
}
