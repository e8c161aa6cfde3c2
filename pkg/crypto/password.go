package crypto

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt
	BcryptCost = 12

	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// HashPassword hashes a password using bcrypt at BcryptCost
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, BcryptCost)
}

// HashPasswordWithCost hashes with an explicit cost, tests use bcrypt.MinCost
func HashPasswordWithCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength enforces length bounds. bcrypt ignores input past
// 72 bytes so longer passwords are rejected.
func ValidatePasswordStrength(password string) bool {
	n := utf8.RuneCountInString(password)
	return n >= MinPasswordLength && len(password) <= MaxPasswordLength
}
