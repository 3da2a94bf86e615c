// Package memzero wipes secret material held in memory.
package memzero

import (
	"runtime"

	"openpeer/internal/domain"
)

// Zero overwrites b with zeros.
//
//go:noinline
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(&b)
}

// Key wipes an identity signing key in place.
func Key(k *domain.Ed25519Private) {
	if k != nil {
		Zero(k[:])
	}
}
