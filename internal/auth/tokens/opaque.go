package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// DefaultOpaqueLength is the number of random bytes in account tokens.
const DefaultOpaqueLength = 16

// OpaqueToken is a single-use account token: the plaintext goes into the emailed link,
// only the hash is stored.
type OpaqueToken struct {
	Plaintext string
	Hash      string
}

// GenerateOpaqueToken returns a hex-encoded random token of length bytes and its storage hash.
func GenerateOpaqueToken(length int) (*OpaqueToken, error) {
	if length <= 0 {
		length = DefaultOpaqueLength
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate random token: %w", err)
	}
	plaintext := hex.EncodeToString(buf)
	return &OpaqueToken{Plaintext: plaintext, Hash: HashToken(plaintext)}, nil
}

// HashToken returns the hex SHA-256 of a plaintext token.
func HashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// MatchToken compares a plaintext token against a stored hash in constant time.
func MatchToken(plaintext, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashToken(plaintext)), []byte(storedHash)) == 1
}
