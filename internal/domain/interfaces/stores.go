package interfaces

import domaintypes "openpeer/internal/domain/types"

// IdentityStore persists your long-term identity keys.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
}

// AccountStore persists per-bootstrapper lockbox account profiles.
type AccountStore interface {
	SaveAccountProfile(profile domaintypes.AccountProfile) error
	LoadAccountProfile(
		bootstrapper string,
		domain string,
	) (domaintypes.AccountProfile, bool, error)
}

// LocationStore is the durable key/row map behind location databases.
type LocationStore interface {
	SaveDatabase(rec domaintypes.DatabaseRecord) error
	DeleteDatabase(loc domaintypes.Location, databaseID string) error
	LoadDatabases(loc domaintypes.Location) ([]domaintypes.DatabaseRecord, error)
	Locations() ([]domaintypes.Location, error)

	SaveEntry(loc domaintypes.Location, rec domaintypes.EntryRecord) error
	// EntriesSince returns entries whose update version is greater than
	// since, ascending by update version.
	EntriesSince(
		loc domaintypes.Location,
		databaseID string,
		since uint64,
	) ([]domaintypes.EntryRecord, error)
}
