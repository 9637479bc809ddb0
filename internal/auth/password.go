package auth

import (
	"errors"
	"fmt"
	"strings"

	"kointos-backend/pkg/errs"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 8

// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
var ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password with a stored hash.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return errs.ErrInvalidCredentials
	}
	return err
}

// ValidateGroups checks that every requested group is declared in configured.
func ValidateGroups(configured, requested []string) error {
	for _, g := range requested {
		found := false
		for _, c := range configured {
			if c == g {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown group %q", g)
		}
	}
	return nil
}

// NormalizeEmail is the canonical form under which identities are stored and looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
