package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestNewResetToken(t *testing.T) {
	plain, hash, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if !ValidResetTokenFormat(plain) {
		t.Fatalf("unexpected token format %q", plain)
	}
	sum := sha256.Sum256([]byte(plain))
	if hash != hex.EncodeToString(sum[:]) {
		t.Fatal("hash must be the sha256 hex of the plaintext")
	}
	if hash == plain {
		t.Fatal("hash must differ from plaintext")
	}
	if HashResetToken(plain) != hash {
		t.Fatal("HashResetToken must be deterministic")
	}
}

func TestNewResetTokenUnique(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		plain, _, err := NewResetToken()
		if err != nil {
			t.Fatalf("NewResetToken: %v", err)
		}
		if _, dup := seen[plain]; dup {
			t.Fatal("duplicate reset token")
		}
		seen[plain] = struct{}{}
	}
}

func TestValidResetTokenFormat(t *testing.T) {
	for _, s := range []string{"", "abc", "zz" + string(make([]byte, 62))} {
		if ValidResetTokenFormat(s) {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}
