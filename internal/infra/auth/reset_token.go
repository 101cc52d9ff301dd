package auth

import (
	"crypto/rand"
	"encoding/hex"
)

const resetTokenBytes = 32

// NewResetToken returns a high-entropy opaque token for password-reset links.
// Unlike the JWT pair it carries no claims; validity lives entirely in the
// store alongside its expiry.
func NewResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}
