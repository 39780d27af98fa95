// Package auth holds the role gate, password hashing and bearer tokens.
package auth

import (
	"slices"

	"golang.org/x/crypto/bcrypt"

	"nietladen/internal/apperr"
	"nietladen/internal/models"
)

// MinPasswordLength is the shortest password accepted for an account.
const MinPasswordLength = 6

// RequireRole returns an auth error unless roles contains required.
// It performs no I/O and is the only role check in the codebase.
func RequireRole(roles []models.Role, required models.Role) error {
	if slices.Contains(roles, required) {
		return nil
	}
	return apperr.Auth("unauthorized")
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
