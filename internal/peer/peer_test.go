package peer_test

import (
	"errors"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/crypto"
	"openpeer/internal/message/info"
	"openpeer/internal/peer"
	"openpeer/internal/wire"
)

const aliceURI = "peer://example.com/alice"

func TestURIGrammar(t *testing.T) {
	d, c, err := peer.SplitURI("peer://example.com:8080/abc-123")
	require.NoError(t, err)
	assert.Equal(t, "example.com:8080", d)
	assert.Equal(t, "abc-123", c)
	assert.Equal(t, "peer://example.com:8080/abc-123", peer.JoinURI(d, c))

	for _, bad := range []string{
		"", "peer://", "peer://example.com", "peer://example.com/", "peer:///abc",
		"http://example.com/abc", "peer://example.com/a/b", "peer://exa mple.com/abc",
	} {
		assert.False(t, peer.IsValid(bad), bad)
		_, _, err := peer.SplitURI(bad)
		assert.True(t, errors.Is(err, peer.ErrInvalidURI), bad)
	}
}

func signedDoc(t *testing.T) (*etree.Element, *peer.Peer) {
	t.Helper()
	priv, pub, err := crypto.GenerateEd25519()
	require.NoError(t, err)

	doc := etree.NewDocument()
	root := doc.CreateElement("bundle")
	el := root.CreateElement("section")
	el.CreateAttr("id", "s1")
	wire.Text(el, "contact", aliceURI)
	wire.Text(el, "payload", "hello")
	require.NoError(t, peer.Sign(el, priv, aliceURI))

	p, err := peer.NewWithKey(aliceURI, pub)
	require.NoError(t, err)
	return el, p
}

func TestSignAndVerify(t *testing.T) {
	el, p := signedDoc(t)
	require.Equal(t, "signature", el.NextSibling().Tag)
	assert.True(t, p.VerifySignature(el))

	el.SelectElement("payload").SetText("tampered")
	assert.False(t, p.VerifySignature(el))
}

func TestVerifyFailsClosedWithoutKey(t *testing.T) {
	el, _ := signedDoc(t)
	keyless, err := peer.New(aliceURI)
	require.NoError(t, err)
	assert.False(t, keyless.VerifySignature(el))
	assert.False(t, keyless.VerifySignature(nil))
}

func TestVerifyRequiresMatchingURI(t *testing.T) {
	el, p := signedDoc(t)
	pub, _ := p.PublicKey()
	other, err := peer.NewWithKey("peer://example.com/bob", pub)
	require.NoError(t, err)
	assert.False(t, other.VerifySignature(el))
}

func TestBundleSignatures(t *testing.T) {
	priv, pub, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	const grantURI = "peer://grant.example.com/service"

	b, err := peer.SignBundle(info.ChallengeInfo{ID: "ch-1", Name: "lockbox"}, priv, grantURI)
	require.NoError(t, err)

	grant, err := peer.NewWithKey(grantURI, pub)
	require.NoError(t, err)
	assert.True(t, grant.VerifyBundle(b))

	b.Challenge.Name = "forged"
	assert.False(t, grant.VerifyBundle(b))
	assert.False(t, grant.VerifyBundle(info.ChallengeBundle{Challenge: info.ChallengeInfo{ID: "x"}}))

	_, err = peer.SignBundle(info.ChallengeInfo{Name: "no id"}, priv, grantURI)
	assert.ErrorIs(t, err, peer.ErrNoID)
}

func TestFindStateTransitions(t *testing.T) {
	p, err := peer.New(aliceURI)
	require.NoError(t, err)
	assert.Equal(t, peer.FindPending, p.FindState())
	assert.False(t, p.SetFindState(peer.FindCompleted))
	assert.True(t, p.SetFindState(peer.FindFinding))
	assert.True(t, p.SetFindState(peer.FindCompleted))
	assert.False(t, p.SetFindState(peer.FindFinding))
}

func TestRegistrySharesPeers(t *testing.T) {
	r, err := peer.NewRegistry(2)
	require.NoError(t, err)

	a1, err := r.Get(aliceURI)
	require.NoError(t, err)
	a2, err := r.Get(aliceURI)
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	_, err = r.Get("not a uri")
	assert.Error(t, err)

	_, _ = r.Get("peer://example.com/b")
	_, _ = r.Get("peer://example.com/c")
	assert.Equal(t, 2, r.Len())
	_, ok := r.Lookup(aliceURI)
	assert.False(t, ok)
}
