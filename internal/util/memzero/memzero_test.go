package memzero_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"openpeer/internal/domain"
	"openpeer/internal/util/memzero"
)

func TestZero(t *testing.T) {
	b := []byte("secret")
	memzero.Zero(b)
	assert.Equal(t, make([]byte, 6), b)

	var k domain.Ed25519Private
	k[0], k[63] = 1, 2
	memzero.Key(&k)
	assert.Equal(t, domain.Ed25519Private{}, k)
	memzero.Key(nil)
}
