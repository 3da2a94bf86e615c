package locationdb

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"openpeer/internal/domain"
	"openpeer/internal/queue"
)

// ErrStopped is returned when the engine queue no longer runs.
var ErrStopped = errors.New("locationdb: engine stopped")

// Engine owns the catalogs of every known peer location. Its methods are
// safe for concurrent use; they run serialized on the engine queue and must
// not be called from a task already running on it.
type Engine struct {
	q     *queue.Queue
	log   zerolog.Logger
	store domain.LocationStore

	catalogs map[domain.Location]*catalog
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore writes every change through to s.
func WithStore(s domain.LocationStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine returns an engine running on q.
func NewEngine(q *queue.Queue, opts ...Option) *Engine {
	e := &Engine{
		q:        q,
		log:      zerolog.Nop(),
		catalogs: make(map[domain.Location]*catalog),
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.With().Str("component", "locationdb").Logger()
	return e
}

func (e *Engine) do(fn func()) bool {
	return e.q.Sync(fn)
}

func (e *Engine) now() time.Time {
	return e.q.Clock().Now().UTC().Truncate(time.Second)
}

func (e *Engine) catalog(loc domain.Location, create bool) *catalog {
	c, ok := e.catalogs[loc]
	if !ok && create {
		c = newCatalog(loc)
		e.catalogs[loc] = c
	}
	return c
}

// live returns a database that exists, is not removed and is not expired.
func (e *Engine) live(loc domain.Location, id string) *database {
	c := e.catalog(loc, false)
	if c == nil {
		return nil
	}
	db, ok := c.dbs[id]
	if !ok || db.removed() || e.expired(db) {
		return nil
	}
	return db
}

func (e *Engine) expired(db *database) bool {
	return !db.rec.Expires.IsZero() && !db.rec.Expires.After(e.now())
}

// Locations lists every location with a catalog.
func (e *Engine) Locations() []domain.Location {
	var out []domain.Location
	e.do(func() {
		for loc := range e.catalogs {
			out = append(out, loc)
		}
	})
	return out
}

// CreateDatabase adds a database to loc. It fails when a live database with
// the same id exists. An expired database not yet collected is tombstoned
// first, unless pinned. A zero expires never expires.
func (e *Engine) CreateDatabase(loc domain.Location, id, metaData string, expires time.Time) bool {
	ok := false
	e.do(func() {
		c := e.catalog(loc, true)
		if old, exists := c.dbs[id]; exists && !old.removed() {
			if !e.expired(old) || old.pins > 0 {
				return
			}
			e.tombstone(c, old, 0)
		}
		now := e.now()
		db := newDatabase(domain.DatabaseRecord{
			Location:    loc,
			DatabaseID:  id,
			MetaData:    metaData,
			Created:     now,
			Expires:     expires,
			Disposition: domain.DispositionAdd,
		})
		if old, exists := c.dbs[id]; exists {
			// Keep versions monotonic across re-creation.
			db.rec.Version = old.rec.Version
			c.changes.Delete(old)
		}
		c.touch(db, 0)
		e.persistDatabase(db)
		e.notifyList(c)
		ok = true
	})
	return ok
}

// UpdateDatabase replaces the metadata and expiry of a live database.
func (e *Engine) UpdateDatabase(loc domain.Location, id, metaData string, expires time.Time) bool {
	ok := false
	e.do(func() {
		db := e.live(loc, id)
		if db == nil {
			return
		}
		db.rec.MetaData = metaData
		db.rec.Expires = expires
		if db.rec.Disposition != domain.DispositionAdd {
			db.rec.Disposition = domain.DispositionUpdate
		}
		c := e.catalog(loc, false)
		c.touch(db, 0)
		e.persistDatabase(db)
		e.notifyList(c)
		ok = true
	})
	return ok
}

// DeleteDatabase drops the entries of a database and leaves a tombstone in
// the list log.
func (e *Engine) DeleteDatabase(loc domain.Location, id string) bool {
	ok := false
	e.do(func() {
		c := e.catalog(loc, false)
		if c == nil {
			return
		}
		db, exists := c.dbs[id]
		if !exists || db.removed() {
			return
		}
		e.tombstone(c, db, 0)
		ok = true
	})
	return ok
}

func (e *Engine) tombstone(c *catalog, db *database, version uint64) {
	db.rec.Disposition = domain.DispositionRemove
	db.rec.MetaData = ""
	db.entries = make(map[string]*domain.EntryRecord)
	db.log.Clear(false)
	db.subs.Clear()
	c.touch(db, version)
	if e.store != nil {
		if err := e.store.DeleteDatabase(c.loc, db.rec.DatabaseID); err != nil {
			e.log.Error().Err(err).Str("database", db.rec.DatabaseID).Msg("store delete failed")
		}
		e.persistDatabase(db)
	}
	e.notifyList(c)
}

// Database returns the descriptor of a live database.
func (e *Engine) Database(loc domain.Location, id string) (domain.DatabaseRecord, bool) {
	var rec domain.DatabaseRecord
	ok := false
	e.do(func() {
		if db := e.live(loc, id); db != nil {
			rec, ok = db.rec, true
		}
	})
	return rec, ok
}

// DatabaseUpdates returns the descriptors changed after list version since,
// ascending, and the list version to resume from. Tombstones are included;
// expired databases not yet collected are not.
func (e *Engine) DatabaseUpdates(loc domain.Location, since uint64) ([]domain.DatabaseRecord, uint64) {
	var out []domain.DatabaseRecord
	next := since
	e.do(func() {
		out, next = e.databaseUpdates(loc, since)
	})
	return out, next
}

func (e *Engine) databaseUpdates(loc domain.Location, since uint64) ([]domain.DatabaseRecord, uint64) {
	c := e.catalog(loc, false)
	if c == nil {
		return nil, since
	}
	return c.since(since, func(db *database) bool {
		return db.removed() || !e.expired(db)
	})
}

// ListVersion returns the current list version of loc.
func (e *Engine) ListVersion(loc domain.Location) uint64 {
	var v uint64
	e.do(func() {
		if c := e.catalog(loc, false); c != nil {
			v = c.listVersion
		}
	})
	return v
}

// SetDownloadedVersion records how far the local replica of a database has
// caught up. The watermark never moves backwards.
func (e *Engine) SetDownloadedVersion(loc domain.Location, id string, v uint64) bool {
	ok := false
	e.do(func() {
		db := e.live(loc, id)
		if db == nil {
			return
		}
		if v > db.rec.LastDownloadedVersion {
			db.rec.LastDownloadedVersion = v
			e.persistDatabase(db)
		}
		ok = true
	})
	return ok
}

// DownloadedVersion returns the replica watermark of a database.
func (e *Engine) DownloadedVersion(loc domain.Location, id string) (uint64, bool) {
	var v uint64
	ok := false
	e.do(func() {
		if db := e.live(loc, id); db != nil {
			v, ok = db.rec.LastDownloadedVersion, true
		}
	})
	return v, ok
}

// Pin keeps a database from being collected by Expire until the returned
// release function is called. It returns nil when the database is not live.
func (e *Engine) Pin(loc domain.Location, id string) (release func()) {
	e.do(func() {
		db := e.live(loc, id)
		if db == nil {
			return
		}
		db.pins++
		var once bool
		release = func() {
			e.q.Post(func() {
				if !once {
					once = true
					db.pins--
				}
			})
		}
	})
	return release
}

// Expire tombstones every database whose expiry is at or before now, unless
// pinned. It returns the number collected.
func (e *Engine) Expire(now time.Time) int {
	n := 0
	e.do(func() {
		for _, c := range e.catalogs {
			for _, db := range c.dbs {
				if db.removed() || db.pins > 0 || db.rec.Expires.IsZero() || db.rec.Expires.After(now) {
					continue
				}
				e.log.Debug().Str("location", c.loc.String()).Str("database", db.rec.DatabaseID).Msg("database expired")
				e.tombstone(c, db, 0)
				n++
			}
		}
	})
	return n
}

func (e *Engine) persistDatabase(db *database) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveDatabase(db.rec); err != nil {
		e.log.Error().Err(err).Str("database", db.rec.DatabaseID).Msg("store save failed")
	}
}

func (e *Engine) persistEntry(loc domain.Location, rec *domain.EntryRecord) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveEntry(loc, *rec); err != nil {
		e.log.Error().Err(err).Str("entry", rec.EntryID).Msg("store save failed")
	}
}

// Load rebuilds the catalogs from the store.
func (e *Engine) Load() error {
	if e.store == nil {
		return nil
	}
	var err error
	if !e.do(func() { err = e.load() }) {
		return ErrStopped
	}
	return err
}

func (e *Engine) load() error {
	locs, err := e.store.Locations()
	if err != nil {
		return err
	}
	for _, loc := range locs {
		recs, err := e.store.LoadDatabases(loc)
		if err != nil {
			return err
		}
		c := e.catalog(loc, true)
		for _, rec := range recs {
			version := rec.UpdateVersion
			rec.UpdateVersion = 0
			db := newDatabase(rec)
			c.touch(db, version)
			if db.removed() {
				continue
			}
			entries, err := e.store.EntriesSince(loc, rec.DatabaseID, 0)
			if err != nil {
				return err
			}
			for i := range entries {
				ent := entries[i]
				db.put(&ent)
			}
		}
	}
	return nil
}
