package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashToken returns the hex SHA-256 of a refresh or reset token. Accounts store this digest
// instead of the bearer token itself; equal tokens always produce equal digests, so a
// conditional UPDATE on the digest is an exact-match check on the token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// DigestEqual compares a stored token digest with a presented one in constant time. An empty
// stored digest never matches. Postgres stores compare inside the UPDATE instead.
func DigestEqual(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
