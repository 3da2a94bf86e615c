package peer

import (
	"bytes"
	"errors"

	"github.com/beevik/etree"

	"openpeer/internal/crypto"
	"openpeer/internal/domain"
	"openpeer/internal/message/info"
	"openpeer/internal/wire"
)

// Algorithm names the only supported signature scheme.
const Algorithm = "ed25519-sha256"

var (
	// ErrNoParent is returned when signing an element that is not attached
	// to a parent, since the signature must follow it as a sibling.
	ErrNoParent = errors.New("peer: signed element has no parent")
	// ErrNoID is returned when signing an element without an id attribute.
	ErrNoID = errors.New("peer: signed element has no id")
)

// Sign computes a detached signature over el and inserts it as el's next
// sibling.
func Sign(el *etree.Element, priv domain.Ed25519Private, signerURI string) error {
	parent := el.Parent()
	if parent == nil {
		return ErrNoParent
	}
	sig, err := signature(el, priv, signerURI)
	if err != nil {
		return err
	}
	parent.InsertChildAt(el.Index()+1, sig.Element())
	return nil
}

// SignBundle signs a challenge and returns it as a bundle.
func SignBundle(ch info.ChallengeInfo, priv domain.Ed25519Private, signerURI string) (info.ChallengeBundle, error) {
	sig, err := signature(ch.Element(), priv, signerURI)
	if err != nil {
		return info.ChallengeBundle{}, err
	}
	return info.ChallengeBundle{Challenge: ch, Signature: sig}, nil
}

func signature(el *etree.Element, priv domain.Ed25519Private, signerURI string) (info.SignatureInfo, error) {
	id := wire.Attr(el, "id")
	if id == "" {
		return info.SignatureInfo{}, ErrNoID
	}
	digest := crypto.Hash(wire.Canonical(el))
	return info.SignatureInfo{
		Reference:    "#" + id,
		Algorithm:    Algorithm,
		DigestValue:  crypto.B64(digest),
		DigestSigned: crypto.B64(crypto.SignEd25519(priv, digest)),
		KeyURI:       signerURI,
	}, nil
}

func verifyDetached(pub domain.Ed25519Public, el *etree.Element, sig info.SignatureInfo) bool {
	id := wire.Attr(el, "id")
	if id == "" || sig.Reference != "#"+id || sig.Algorithm != Algorithm {
		return false
	}
	digest := crypto.Hash(wire.Canonical(el))
	claimed, err := crypto.FromB64(sig.DigestValue)
	if err != nil || !bytes.Equal(claimed, digest) {
		return false
	}
	signed, err := crypto.FromB64(sig.DigestSigned)
	if err != nil {
		return false
	}
	return crypto.VerifyEd25519(pub, digest, signed)
}
