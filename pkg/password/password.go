package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"
)

// Hash returns the lowercase hex SHA-256 digest of the password.
// No salt and no stretching: stored hashes depend on this exact format.
func Hash(password string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(password)))
}

// Matches reports whether password hashes to the stored hex digest.
func Matches(password, hash string) bool {
	computed := Hash(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(hash))) == 1
}
