package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Hash returns the SHA-256 digest of b.
func Hash(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

// HMAC returns HMAC-SHA256 of msg keyed by key.
func HMAC(key, msg []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(msg)
	return m.Sum(nil)
}

// HMACHex is HMAC rendered as lowercase hex, the form used in access proofs.
func HMACHex(key []byte, msg string) string {
	return Hex(HMAC(key, []byte(msg)))
}

// EqualHex compares two hex proofs in constant time.
func EqualHex(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

// DeriveKey expands secret into n bytes bound to info using HKDF-SHA256.
func DeriveKey(secret, salt []byte, info string, n int) ([]byte, error) {
	out := make([]byte, n)
	r := hkdf.New(sha256.New, secret, salt, []byte(info))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
