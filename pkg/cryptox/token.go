package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Key size constants (in bytes before encoding).
const (
	// KeySize256 is the size of an AES-256 or HMAC-SHA256 key.
	KeySize256 = 32
	// KeySize512 is the size of an HMAC-SHA512 key.
	KeySize512 = 64
)

// GenerateKey returns size bytes from the system CSPRNG.
func GenerateKey(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("key size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}
	return buf, nil
}

// GenerateToken creates a random key of the given byte length and returns it
// base64url-encoded (URL-safe, no padding), suitable for text key files.
func GenerateToken(size int) (string, error) {
	buf, err := GenerateKey(size)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// DecodeToken reverses GenerateToken.
func DecodeToken(token string) ([]byte, error) {
	buf, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return buf, nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// shortened to 12 characters. It identifies a credential in logs without
// revealing it.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:12]
}
