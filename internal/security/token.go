package security

import (
	"github.com/google/uuid" // UUID generation
)

// Session cookie parameters shared by the auth handlers and middleware
const (
	TokenCookieName = "access_token"    // Cookie carrying the session token
	TokenMaxAge     = 3600 * 24 * 7     // Cookie max age: 7 days in seconds
	TokenRetries    = 3                 // Re-issue attempts on a duplicate-key collision
)

// GenerateToken mints a fresh opaque session token.
// Uniqueness is probabilistic (uuid v4); the unique index on the users
// access_token column is the actual guard, callers retry on collision.
func GenerateToken() string {
	return uuid.NewString() // Random 128-bit token
}
