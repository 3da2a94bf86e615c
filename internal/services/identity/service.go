package identity

import (
	"errors"
	"fmt"
	"unicode"

	"openpeer/internal/crypto"
	"openpeer/internal/domain"
	"openpeer/internal/peer"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
	// ErrNoDomain is returned when an identity is generated without a domain.
	ErrNoDomain = errors.New("identity: domain required")
)

// Service manages identity key creation and access using a backing store.
//
// The identity is one Ed25519 key pair. It signs peer files, namespace
// grant bundles and anything else the peer asserts; its fingerprint is the
// contact id of the peer URI.
type Service struct {
	store domain.IdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore) *Service { return &Service{store: s} }

// GenerateIdentity creates a new identity under peerDomain, saves it sealed
// with the passphrase, and returns it with the fingerprint of its public key.
func (s *Service) GenerateIdentity(
	passphrase, peerDomain string,
) (domain.Identity, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}
	if peerDomain == "" {
		return domain.Identity{}, "", ErrNoDomain
	}

	priv, pub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.Identity{}, "", err
	}
	fp := crypto.Fingerprint(pub.Slice())
	id := domain.Identity{
		URI:    peer.JoinURI(peerDomain, fp),
		EdPub:  pub,
		EdPriv: priv,
	}
	if !peer.IsValid(id.URI) {
		return domain.Identity{}, "", fmt.Errorf("%w: %q", peer.ErrInvalidURI, id.URI)
	}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	return id, domain.Fingerprint(fp), nil
}

// LoadIdentity decrypts and returns the local identity.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	return s.store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns the fingerprint of the local public key.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return domain.Fingerprint(crypto.Fingerprint(id.EdPub.Slice())), nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
