package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/peer"
	"openpeer/internal/services/identity"
	"openpeer/internal/store"
)

const strong = "Tr0ub4dor&3-horse"

func TestGenerateIdentity(t *testing.T) {
	svc := identity.New(store.NewIdentityFileStore(t.TempDir()))

	id, fp, err := svc.GenerateIdentity(strong, "example.com")
	require.NoError(t, err)

	d, contact, err := peer.SplitURI(id.URI)
	require.NoError(t, err)
	assert.Equal(t, "example.com", d)
	assert.Equal(t, fp.String(), contact)

	loaded, err := svc.LoadIdentity(strong)
	require.NoError(t, err)
	assert.Equal(t, id, loaded)

	again, err := svc.FingerprintIdentity(strong)
	require.NoError(t, err)
	assert.Equal(t, fp, again)
}

func TestGenerateIdentity_Rejects(t *testing.T) {
	svc := identity.New(store.NewIdentityFileStore(t.TempDir()))

	for _, pw := range []string{"short1!A", "alllowercase123!", "NoDigitsHere!!", "NoSymbols12345"} {
		_, _, err := svc.GenerateIdentity(pw, "example.com")
		assert.ErrorIs(t, err, identity.ErrWeakPassphrase, pw)
	}

	_, _, err := svc.GenerateIdentity(strong, "")
	assert.ErrorIs(t, err, identity.ErrNoDomain)

	_, _, err = svc.GenerateIdentity(strong, "bad domain")
	assert.ErrorIs(t, err, peer.ErrInvalidURI)
}
