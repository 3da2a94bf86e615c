package crypto

import (
	"encoding/base64"
	"encoding/hex"
)

// B64 returns standard base64 encoding without newlines.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// FromB64 decodes standard base64.
func FromB64(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

// Hex returns lowercase hex encoding.
func Hex(b []byte) string { return hex.EncodeToString(b) }

// FromHex decodes hex text.
func FromHex(s string) ([]byte, error) { return hex.DecodeString(s) }
