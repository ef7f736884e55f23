package pkg

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandomString returns a URL-safe, base64 encoded string built
// from n securely generated random bytes.
func GenerateRandomString(n int) (string, error) {
	b := make([]byte, n)
	// err == nil only if len(b) bytes were read
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
