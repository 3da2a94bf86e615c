package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"openpeer/internal/crypto"
)

func TestSignVerify(t *testing.T) {
	priv, pub, err := crypto.GenerateEd25519()
	require.NoError(t, err)

	sig := crypto.SignEd25519(priv, []byte("hello"))
	require.True(t, crypto.VerifyEd25519(pub, []byte("hello"), sig))
	require.False(t, crypto.VerifyEd25519(pub, []byte("hellO"), sig))
	require.False(t, crypto.VerifyEd25519(pub, []byte("hello"), sig[:10]))
}

func TestHMACHexIsStable(t *testing.T) {
	a := crypto.HMACHex([]byte("secret"), "lockbox-access:token:2020")
	b := crypto.HMACHex([]byte("secret"), "lockbox-access:token:2020")
	c := crypto.HMACHex([]byte("other"), "lockbox-access:token:2020")
	require.Len(t, a, 64)
	require.True(t, crypto.EqualHex(a, b))
	require.False(t, crypto.EqualHex(a, c))
}

func TestRandomString(t *testing.T) {
	s, err := crypto.RandomString(32)
	require.NoError(t, err)
	require.Len(t, s, 32)

	u, err := crypto.RandomString(32)
	require.NoError(t, err)
	require.NotEqual(t, s, u)
}

func TestDeriveKey(t *testing.T) {
	k1, err := crypto.DeriveKey([]byte("secret"), []byte("salt"), "lockbox", 32)
	require.NoError(t, err)
	k2, err := crypto.DeriveKey([]byte("secret"), []byte("salt"), "push-mailbox", 32)
	require.NoError(t, err)
	require.Len(t, k1, 32)
	require.NotEqual(t, k1, k2)
}

func TestFingerprint(t *testing.T) {
	require.Len(t, crypto.Fingerprint([]byte{1, 2, 3}), 20)
}
