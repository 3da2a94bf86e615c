package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"openpeer/internal/domain"
	"openpeer/internal/util/memzero"
)

const identityFile = "identity.json.enc"

// ErrNoIdentity is returned when no identity has been generated yet.
var ErrNoIdentity = errors.New("store: no identity")

// IdentityFileStore keeps the local identity sealed with a passphrase.
type IdentityFileStore struct {
	dir string
	kdf kdfParams
	mu  sync.Mutex
}

func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir, kdf: defaultKDF()}
}

// SaveIdentity seals id and replaces the stored identity.
func (s *IdentityFileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)
	sealed, err := seal(passphrase, raw, s.kdf)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, identityFile), sealed, 0o600)
}

// LoadIdentity opens the stored identity.
func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, identityFile))
	if errors.Is(err, os.ErrNotExist) {
		return domain.Identity{}, ErrNoIdentity
	}
	if err != nil {
		return domain.Identity{}, err
	}
	pt, err := open(passphrase, b)
	if err != nil {
		return domain.Identity{}, err
	}
	defer memzero.Zero(pt)
	var id domain.Identity
	if err := json.Unmarshal(pt, &id); err != nil {
		return domain.Identity{}, fmt.Errorf("decode identity: %w", err)
	}
	return id, nil
}

var _ domain.IdentityStore = (*IdentityFileStore)(nil)
