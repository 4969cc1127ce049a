package services

import (
	"errors"
	"unicode"
)

const (
	minPasswordRunes = 8
	// bcrypt only reads the first 72 bytes of its input.
	maxPasswordBytes = 72
)

var (
	ErrWeakPassword    = errors.New("weak password")
	ErrPasswordTooLong = errors.New("password too long")
)

// ValidatePasswordStrength enforces the account password policy: at least
// eight characters mixing upper case, lower case and digits, and no more
// than bcrypt can hash.
func ValidatePasswordStrength(password string) error {
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	if len([]rune(password)) < minPasswordRunes {
		return ErrWeakPassword
	}

	var hasUpper, hasLower, hasDigit bool
	for _, char := range password {
		hasUpper = hasUpper || unicode.IsUpper(char)
		hasLower = hasLower || unicode.IsLower(char)
		hasDigit = hasDigit || unicode.IsDigit(char)
	}
	if !hasUpper || !hasLower || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}
