package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashRefreshToken returns the hex SHA-256 digest of a refresh token.
// Sessions store this digest, never the token itself.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenHashEqual reports whether the presented token digests to the
// stored hash, comparing in constant time.
func RefreshTokenHashEqual(providedToken, storedHash string) bool {
	digest := HashRefreshToken(providedToken)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedHash)) == 1
}
