package crypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	bcryptCost        = 12
)

// HashPassword bcrypt-hashes a plaintext password after bounds-checking its
// length, rejecting passwords outside [8,128] bytes. bcrypt itself refuses
// inputs longer than 72 bytes, so passwords of 73-128 bytes return an error
// from the hashing step.
func HashPassword(plaintext string) (string, error) {
	if len(plaintext) < minPasswordLength || len(plaintext) > maxPasswordLength {
		return "", fmt.Errorf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches hash.
func VerifyPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
