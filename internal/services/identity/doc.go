// Package identity manages creation, sealing and loading of the local peer
// identity.
//
// It enforces the passphrase policy, generates the Ed25519 signing key pair,
// derives the peer URI from the key fingerprint, and persists the result via
// the domain.IdentityStore.
package identity
