package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ResetTokenBytes is the entropy of a password reset token.
const ResetTokenBytes = 32

// NewResetToken returns a hex-encoded random token and the hex SHA-256 of
// it. Only the hash is ever persisted.
func NewResetToken() (plain, hash string, err error) {
	var raw [ResetTokenBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", "", fmt.Errorf("read reset token entropy: %w", err)
	}
	plain = hex.EncodeToString(raw[:])
	return plain, HashResetToken(plain), nil
}

// HashResetToken digests a presented token for lookup. A fast digest is
// enough for a single-use high-entropy value.
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// ValidResetTokenFormat reports whether plain could have come from
// NewResetToken.
func ValidResetTokenFormat(plain string) bool {
	if len(plain) != 2*ResetTokenBytes {
		return false
	}
	_, err := hex.DecodeString(plain)
	return err == nil
}
