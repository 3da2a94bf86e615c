// Package peer models remote peers: the peer URI grammar, the shared Peer
// object with its optional public key and find state, detached signatures
// over XML elements, and a bounded registry that shares one Peer per URI.
//
// Signature verification fails closed: a Peer without a public key never
// verifies anything.
package peer
