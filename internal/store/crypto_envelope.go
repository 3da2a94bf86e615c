package store

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"openpeer/internal/crypto"
	"openpeer/internal/util/memzero"
)

// The current version of the sealed blob format.
const envelopeVersion = 1

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// sealed blob was modified.
var ErrWrongPassphrase = errors.New("store: wrong passphrase or corrupted identity")

// envelope is the on-disk JSON structure holding the ciphertext and KDF
// parameters.
type envelope struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// kdfParams are the scrypt cost parameters.
type kdfParams struct{ N, R, P int }

func defaultKDF() kdfParams { return kdfParams{N: 1 << 15, R: 8, P: 1} }

func (k kdfParams) key(passphrase string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, k.N, k.R, k.P, chacha20poly1305.KeySize)
}

// seal derives a key from passphrase and encrypts raw into an envelope.
func seal(passphrase string, raw []byte, kdf kdfParams) ([]byte, error) {
	salt, err := crypto.RandomBytes(16)
	if err != nil {
		return nil, err
	}
	key, err := kdf.key(passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	// A fresh salt gives a fresh key, so the zero nonce is never reused.
	var nonce [chacha20poly1305.NonceSize]byte
	return json.Marshal(envelope{
		V:      envelopeVersion,
		Salt:   salt,
		N:      kdf.N,
		R:      kdf.R,
		P:      kdf.P,
		Cipher: aead.Seal(nil, nonce[:], raw, salt),
	})
}

// open decrypts an envelope produced by seal.
func open(passphrase string, b []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.V > envelopeVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", env.V)
	}
	key, err := kdfParams{N: env.N, R: env.R, P: env.P}.key(passphrase, env.Salt)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], env.Cipher, env.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}
