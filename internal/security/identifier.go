package security

import (
	"regexp" // Regular expressions
)

// Loose email pattern used only to decide whether a supplied identifier
// is routed to the email column or the username column. Lowercase
// letters, digits and underscores in the local part, letters-only
// domain segments. Deliberately not full RFC validation.
var emailPattern = regexp.MustCompile(`^([a-z]+)((([a-z]+)|(_[a-z]+))?(([0-9]+)|(_[0-9]+))?)*@([a-z]+).([a-z]+)$`)

// IsEmail reports whether the identifier looks like an email address
func IsEmail(identifier string) bool {
	return emailPattern.MatchString(identifier)
}
