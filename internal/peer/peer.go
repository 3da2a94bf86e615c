package peer

import (
	"sync"

	"github.com/beevik/etree"

	"openpeer/internal/domain"
	"openpeer/internal/message/info"
	"openpeer/internal/wire"
)

// FindState tracks location discovery for a peer.
type FindState int

const (
	FindPending FindState = iota
	FindIdle
	FindFinding
	FindCompleted
)

func (s FindState) String() string {
	switch s {
	case FindPending:
		return "pending"
	case FindIdle:
		return "idle"
	case FindFinding:
		return "finding"
	case FindCompleted:
		return "completed"
	}
	return "unknown"
}

// Peer is shared by everything that refers to the same peer URI. It is safe
// for concurrent use.
type Peer struct {
	uri string

	mu     sync.Mutex
	pub    domain.Ed25519Public
	hasKey bool
	state  FindState
}

// New returns a peer for uri without key material.
func New(uri string) (*Peer, error) {
	if !IsValid(uri) {
		return nil, ErrInvalidURI
	}
	return &Peer{uri: uri}, nil
}

// NewWithKey returns a peer that can verify signatures made by pub.
func NewWithKey(uri string, pub domain.Ed25519Public) (*Peer, error) {
	p, err := New(uri)
	if err != nil {
		return nil, err
	}
	p.SetPublicKey(pub)
	return p, nil
}

func (p *Peer) URI() string { return p.uri }

// SetPublicKey installs key material. A zero key is ignored.
func (p *Peer) SetPublicKey(pub domain.Ed25519Public) {
	if pub.IsZero() {
		return
	}
	p.mu.Lock()
	p.pub, p.hasKey = pub, true
	p.mu.Unlock()
}

func (p *Peer) PublicKey() (domain.Ed25519Public, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pub, p.hasKey
}

func (p *Peer) FindState() FindState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetFindState applies an allowed transition and reports whether it did.
// Completed is final.
func (p *Peer) SetFindState(s FindState) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !allowed(p.state, s) {
		return false
	}
	p.state = s
	return true
}

func allowed(from, to FindState) bool {
	switch from {
	case FindPending:
		return to == FindIdle || to == FindFinding
	case FindIdle:
		return to == FindFinding || to == FindCompleted
	case FindFinding:
		return to == FindIdle || to == FindCompleted
	}
	return false
}

// VerifySignature checks the <signature> sibling that follows signed. It
// requires the peer's public key, a reference to the element id, a digest
// matching the element, a valid signature over that digest, and a signer URI
// (plus any <contact> child of signed) equal to this peer's URI.
func (p *Peer) VerifySignature(signed *etree.Element) bool {
	pub, ok := p.PublicKey()
	if !ok || signed == nil {
		return false
	}
	sigEl := signed.NextSibling()
	if sigEl == nil || sigEl.Tag != "signature" {
		return false
	}
	sig := info.DecodeSignature(sigEl)
	if sig.KeyURI != p.uri {
		return false
	}
	if c := wire.Child(signed, "contact"); c != nil && c.Text() != p.uri {
		return false
	}
	return verifyDetached(pub, signed, sig)
}

// VerifyBundle verifies a decoded challenge bundle signed by this peer.
func (p *Peer) VerifyBundle(b info.ChallengeBundle) bool {
	if b.Signature.IsEmpty() {
		return false
	}
	el := b.Element()
	return p.VerifySignature(wire.Child(el, info.ChallengeTag))
}
