package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewMessageID returns a random opaque message ID.
func NewMessageID() string {
	b := make([]byte, 12)
	rand.Read(b)
	return hex.EncodeToString(b)
}
