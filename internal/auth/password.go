package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/keygate/keygate/internal/shared"
)

const bcryptCost = 12

const (
	passwordMinLength = 8
	passwordMaxLength = 128
	passwordSymbols   = `!@#$%^&*(),.?":{}|<>`
)

// HashPassword produces a salted bcrypt digest of the password.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(digest), nil
}

// CheckPassword reports whether password matches the stored digest.
// bcrypt's comparison is constant-time with respect to the password content.
func CheckPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// ValidatePassword enforces the strength rules in a fixed order: length,
// uppercase, lowercase, digit, symbol. The first violated rule is reported;
// the check order is a contract, not an implementation detail.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLength {
		return fmt.Errorf("%w: password must be at least 8 characters long", shared.ErrWeakPassword)
	}
	if len(password) > passwordMaxLength {
		return fmt.Errorf("%w: password must be at most 128 characters long", shared.ErrWeakPassword)
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return fmt.Errorf("%w: password must contain at least one uppercase letter", shared.ErrWeakPassword)
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		return fmt.Errorf("%w: password must contain at least one lowercase letter", shared.ErrWeakPassword)
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return fmt.Errorf("%w: password must contain at least one number", shared.ErrWeakPassword)
	}
	if !strings.ContainsAny(password, passwordSymbols) {
		return fmt.Errorf("%w: password must contain at least one special character", shared.ErrWeakPassword)
	}
	return nil
}
