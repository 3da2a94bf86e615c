package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"openpeer/internal/domain"
)

const locationSchema = `
CREATE TABLE IF NOT EXISTS locations (
	peerLocationHash TEXT PRIMARY KEY,
	peerURI          TEXT NOT NULL,
	locationID       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS databases (
	peerLocationHash      TEXT NOT NULL,
	databaseID            TEXT NOT NULL,
	metaData              TEXT NOT NULL DEFAULT '',
	created               INTEGER NOT NULL DEFAULT 0,
	expires               INTEGER NOT NULL DEFAULT 0,
	version               INTEGER NOT NULL DEFAULT 0,
	lastDownloadedVersion INTEGER NOT NULL DEFAULT 0,
	disposition           TEXT NOT NULL DEFAULT '',
	updateVersion         INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (peerLocationHash, databaseID)
);
CREATE TABLE IF NOT EXISTS entries (
	indexDatabase TEXT NOT NULL,
	entryID       TEXT NOT NULL,
	data          TEXT NOT NULL DEFAULT '',
	dataLength    INTEGER NOT NULL DEFAULT 0,
	metaData      TEXT NOT NULL DEFAULT '',
	disposition   TEXT NOT NULL DEFAULT '',
	updateVersion INTEGER NOT NULL DEFAULT 0,
	created       INTEGER NOT NULL DEFAULT 0,
	updated       INTEGER NOT NULL DEFAULT 0,
	lastAccessed  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (indexDatabase, entryID)
);
CREATE INDEX IF NOT EXISTS entries_by_version ON entries (indexDatabase, updateVersion);
`

// LocationSQLStore persists location databases in SQLite.
type LocationSQLStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenLocationSQLStore opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory store.
func OpenLocationSQLStore(path string) (*LocationSQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(locationSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &LocationSQLStore{db: db}, nil
}

func (s *LocationSQLStore) Close() error { return s.db.Close() }

// SaveDatabase upserts a descriptor and records its location.
func (s *LocationSQLStore) SaveDatabase(rec domain.DatabaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO locations (peerLocationHash, peerURI, locationID) VALUES (?, ?, ?)`,
		rec.Location.Hash(), rec.Location.PeerURI, rec.Location.LocationID,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO databases
		(peerLocationHash, databaseID, metaData, created, expires, version,
		 lastDownloadedVersion, disposition, updateVersion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Location.Hash(), rec.DatabaseID, rec.MetaData,
		unixMilli(rec.Created), unixMilli(rec.Expires),
		int64(rec.Version), int64(rec.LastDownloadedVersion),
		string(rec.Disposition), int64(rec.UpdateVersion),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDatabase removes a descriptor and all of its entries.
func (s *LocationSQLStore) DeleteDatabase(loc domain.Location, databaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM entries WHERE indexDatabase = ?`, entryIndex(loc, databaseID)); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`DELETE FROM databases WHERE peerLocationHash = ? AND databaseID = ?`,
		loc.Hash(), databaseID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadDatabases returns the descriptors of loc ordered by update version.
func (s *LocationSQLStore) LoadDatabases(loc domain.Location) ([]domain.DatabaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT databaseID, metaData, created, expires, version,
		lastDownloadedVersion, disposition, updateVersion
		FROM databases WHERE peerLocationHash = ? ORDER BY updateVersion`, loc.Hash())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DatabaseRecord
	for rows.Next() {
		var (
			rec                                domain.DatabaseRecord
			created, expires                   int64
			version, downloaded, updateVersion int64
			disposition                        string
		)
		if err := rows.Scan(&rec.DatabaseID, &rec.MetaData, &created, &expires,
			&version, &downloaded, &disposition, &updateVersion); err != nil {
			return nil, err
		}
		rec.Location = loc
		rec.Created = fromUnixMilli(created)
		rec.Expires = fromUnixMilli(expires)
		rec.Version = uint64(version)
		rec.LastDownloadedVersion = uint64(downloaded)
		rec.Disposition = domain.ParseDisposition(disposition)
		rec.UpdateVersion = uint64(updateVersion)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Locations lists every location with at least one saved database.
func (s *LocationSQLStore) Locations() ([]domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT peerURI, locationID FROM locations ORDER BY peerURI, locationID`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Location
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.PeerURI, &loc.LocationID); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// SaveEntry upserts one entry row.
func (s *LocationSQLStore) SaveEntry(loc domain.Location, rec domain.EntryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR REPLACE INTO entries
		(indexDatabase, entryID, data, dataLength, metaData, disposition,
		 updateVersion, created, updated, lastAccessed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entryIndex(loc, rec.DatabaseID), rec.EntryID, rec.Data, rec.DataLength,
		rec.MetaData, string(rec.Disposition), int64(rec.UpdateVersion),
		unixMilli(rec.Created), unixMilli(rec.Updated), unixMilli(rec.LastAccessed),
	)
	return err
}

// EntriesSince returns the entries of a database changed after since,
// ascending by update version.
func (s *LocationSQLStore) EntriesSince(loc domain.Location, databaseID string, since uint64) ([]domain.EntryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT entryID, data, dataLength, metaData, disposition,
		updateVersion, created, updated, lastAccessed
		FROM entries WHERE indexDatabase = ? AND updateVersion > ?
		ORDER BY updateVersion`, entryIndex(loc, databaseID), int64(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EntryRecord
	for rows.Next() {
		var (
			rec                             domain.EntryRecord
			disposition                     string
			version, created, updated, seen int64
		)
		if err := rows.Scan(&rec.EntryID, &rec.Data, &rec.DataLength, &rec.MetaData,
			&disposition, &version, &created, &updated, &seen); err != nil {
			return nil, err
		}
		rec.DatabaseID = databaseID
		rec.Disposition = domain.ParseDisposition(disposition)
		rec.UpdateVersion = uint64(version)
		rec.Created = fromUnixMilli(created)
		rec.Updated = fromUnixMilli(updated)
		rec.LastAccessed = fromUnixMilli(seen)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func entryIndex(loc domain.Location, databaseID string) string {
	return loc.Hash() + "/" + databaseID
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

var _ domain.LocationStore = (*LocationSQLStore)(nil)
