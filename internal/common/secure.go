package common

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomSuffix returns n random hex characters for temporary file names
func RandomSuffix(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}

	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf)[:n], nil
}
