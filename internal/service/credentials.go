package service

import (
	"crypto/rand"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost        = 12
	MinPasswordLength = 8
)

// HashPassword returns the bcrypt hash stored on the account.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares password against a possibly unset hash.
func CheckPassword(hash *string, password string) bool {
	if hash == nil || *hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*hash), []byte(password)) == nil
}

// ValidatePassword applies the minimum-length rule to a new password.
func ValidatePassword(password string) error {
	return validateNewPassword("password", password)
}

func validateNewPassword(field, password string) error {
	if len(strings.TrimSpace(password)) < MinPasswordLength {
		return invalid(field, "must be at least 8 characters")
	}
	return nil
}

var passwordWords = []string{
	"anchor", "bridge", "canyon", "diesel", "engine", "freight", "garage",
	"harbor", "island", "journey", "kettle", "lantern", "meadow", "nickel",
	"orchard", "pepper", "quarry", "river", "saddle", "timber", "uplink",
	"valley", "window", "yonder", "zephyr",
}

const (
	digits       = "0123456789"
	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// TemporaryPassword builds the word-plus-six-digits password handed out by
// administrators.
func TemporaryPassword() (string, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordWords))))
	if err != nil {
		return "", err
	}
	suffix, err := randomString(digits, 6)
	if err != nil {
		return "", err
	}
	return passwordWords[i.Int64()] + suffix, nil
}

// SponsorTemporaryPassword is the 10-character password given to drivers a
// sponsor provisions directly.
func SponsorTemporaryPassword() (string, error) {
	return randomString(alphanumeric, 10)
}

func randomString(alphabet string, n int) (string, error) {
	var sb strings.Builder
	limit := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}
	return sb.String(), nil
}
