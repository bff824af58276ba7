package security

import (
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// HashPassword hashes a plaintext password with bcrypt (salted, slow)
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost) // Generate the digest
	if err != nil {
		return "", err // Return error if hashing fails
	}
	return string(hash), nil // Return the digest as a string
}

// VerifyPassword compares a plaintext attempt against a stored digest
func VerifyPassword(password, digest string) bool {
	// CompareHashAndPassword returns nil on match
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
