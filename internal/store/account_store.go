package store

import (
	"path/filepath"
	"sync"

	"openpeer/internal/domain"
)

const accountsFile = "accounts.json"

// AccountFileStore keeps lockbox account profiles keyed by bootstrapper and
// domain.
type AccountFileStore struct {
	dir string
	mu  sync.Mutex
}

func NewAccountFileStore(dir string) *AccountFileStore {
	return &AccountFileStore{dir: dir}
}

// SaveAccountProfile stores or replaces profile.
func (s *AccountFileStore) SaveAccountProfile(profile domain.AccountProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, accountsFile)
	profiles := make(map[string]domain.AccountProfile)
	if err := readJSON(path, &profiles); err != nil {
		return err
	}
	profiles[accountKey(profile.Bootstrapper, profile.Domain)] = profile
	return writeJSON(path, profiles, 0o600)
}

// LoadAccountProfile returns the profile saved for (bootstrapper, domain).
func (s *AccountFileStore) LoadAccountProfile(bootstrapper, domainName string) (domain.AccountProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := make(map[string]domain.AccountProfile)
	if err := readJSON(filepath.Join(s.dir, accountsFile), &profiles); err != nil {
		return domain.AccountProfile{}, false, err
	}
	p, ok := profiles[accountKey(bootstrapper, domainName)]
	return p, ok, nil
}

func accountKey(bootstrapper, domainName string) string {
	return bootstrapper + "|" + domainName
}

var _ domain.AccountStore = (*AccountFileStore)(nil)
