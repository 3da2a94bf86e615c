package locationdb

import (
	"openpeer/internal/domain"
)

// AddEntry appends a new entry. It fails when the database is not live or
// the entry already exists and is not removed.
func (e *Engine) AddEntry(loc domain.Location, dbID, entryID, data, metaData string) bool {
	ok := false
	e.do(func() {
		db := e.live(loc, dbID)
		if db == nil || entryID == "" {
			return
		}
		if old, exists := db.entries[entryID]; exists && old.Disposition != domain.DispositionRemove {
			return
		}
		now := e.now()
		rec := &domain.EntryRecord{
			DatabaseID:    dbID,
			EntryID:       entryID,
			Data:          data,
			DataLength:    len(data),
			MetaData:      metaData,
			Disposition:   domain.DispositionAdd,
			UpdateVersion: db.nextVersion(),
			Created:       now,
			Updated:       now,
			LastAccessed:  now,
		}
		e.commit(loc, db, rec)
		ok = true
	})
	return ok
}

// UpdateEntry replaces the data of an existing entry. It fails when the
// entry is missing or removed. An entry still marked "add" stays "add".
func (e *Engine) UpdateEntry(loc domain.Location, dbID, entryID, data string) bool {
	ok := false
	e.do(func() {
		db := e.live(loc, dbID)
		if db == nil {
			return
		}
		old, exists := db.entries[entryID]
		if !exists || old.Disposition == domain.DispositionRemove {
			return
		}
		rec := *old
		rec.Data = data
		rec.DataLength = len(data)
		if rec.Disposition != domain.DispositionAdd {
			rec.Disposition = domain.DispositionUpdate
		}
		rec.UpdateVersion = db.nextVersion()
		rec.Updated = e.now()
		e.commit(loc, db, &rec)
		ok = true
	})
	return ok
}

// RemoveEntry marks an entry removed. The tombstone keeps its id and new
// version so pollers from an older cursor observe the removal.
func (e *Engine) RemoveEntry(loc domain.Location, dbID, entryID string) bool {
	ok := false
	e.do(func() {
		db := e.live(loc, dbID)
		if db == nil {
			return
		}
		old, exists := db.entries[entryID]
		if !exists || old.Disposition == domain.DispositionRemove {
			return
		}
		rec := *old
		rec.Data = ""
		rec.DataLength = 0
		rec.MetaData = ""
		rec.Disposition = domain.DispositionRemove
		rec.UpdateVersion = db.nextVersion()
		rec.Updated = e.now()
		e.commit(loc, db, &rec)
		ok = true
	})
	return ok
}

func (e *Engine) commit(loc domain.Location, db *database, rec *domain.EntryRecord) {
	db.put(rec)
	e.persistEntry(loc, rec)
	e.persistDatabase(db)
	e.notifyEntries(db)
}

// GetUpdates returns the entries changed after version since, ascending by
// version, and the cursor to poll from next. An empty result with an
// unchanged cursor means the caller is caught up.
func (e *Engine) GetUpdates(loc domain.Location, dbID string, since uint64) ([]domain.EntryRecord, uint64) {
	return e.GetUpdatesLimit(loc, dbID, since, 0)
}

// GetUpdatesLimit is GetUpdates returning at most max entries (max <= 0 for
// no limit).
func (e *Engine) GetUpdatesLimit(loc domain.Location, dbID string, since uint64, max int) ([]domain.EntryRecord, uint64) {
	var out []domain.EntryRecord
	next := since
	e.do(func() {
		if db := e.live(loc, dbID); db != nil {
			out, next = db.since(since, max)
		}
	})
	return out, next
}

// GetEntries returns the requested entries that exist, in request order,
// and marks them accessed.
func (e *Engine) GetEntries(loc domain.Location, dbID string, ids []string) []domain.EntryRecord {
	var out []domain.EntryRecord
	e.do(func() {
		db := e.live(loc, dbID)
		if db == nil {
			return
		}
		now := e.now()
		for _, id := range ids {
			rec, ok := db.entries[id]
			if !ok {
				continue
			}
			// Access time is not a change; it does not allocate a version.
			rec.LastAccessed = now
			e.persistEntry(loc, rec)
			out = append(out, *rec)
		}
	})
	return out
}

// ApplyDatabases merges descriptors received from the owner of loc. The
// owner's list versions are kept and the local list version advances to
// next.
func (e *Engine) ApplyDatabases(loc domain.Location, recs []domain.DatabaseRecord, next uint64) {
	e.do(func() {
		c := e.catalog(loc, true)
		for _, in := range recs {
			db, exists := c.dbs[in.DatabaseID]
			if in.Disposition == domain.DispositionRemove {
				if exists && !db.removed() {
					e.tombstone(c, db, in.UpdateVersion)
				}
				continue
			}
			if !exists || db.removed() {
				rec := in
				rec.Location = loc
				rec.UpdateVersion = 0
				rec.LastDownloadedVersion = 0
				if exists {
					c.changes.Delete(db)
				}
				db = newDatabase(rec)
			} else {
				db.rec.MetaData = in.MetaData
				db.rec.Expires = in.Expires
				db.rec.Disposition = in.Disposition
				if in.Version > db.rec.Version {
					db.rec.Version = in.Version
				}
			}
			c.touch(db, in.UpdateVersion)
			e.persistDatabase(db)
		}
		if next > c.listVersion {
			c.listVersion = next
		}
		e.notifyList(c)
	})
}

// ApplyEntries merges entries received from the owner of a database,
// keeping the owner's versions, and advances the downloaded watermark to
// next. It fails when the database is not known locally.
func (e *Engine) ApplyEntries(loc domain.Location, dbID string, recs []domain.EntryRecord, next uint64) bool {
	ok := false
	e.do(func() {
		db := e.live(loc, dbID)
		if db == nil {
			return
		}
		for i := range recs {
			rec := recs[i]
			rec.DatabaseID = dbID
			if old, exists := db.entries[rec.EntryID]; exists && old.UpdateVersion >= rec.UpdateVersion {
				continue
			}
			if rec.Disposition != domain.DispositionRemove && rec.DataLength == 0 {
				rec.DataLength = len(rec.Data)
			}
			db.put(&rec)
			e.persistEntry(loc, &rec)
		}
		if next > db.rec.LastDownloadedVersion {
			db.rec.LastDownloadedVersion = next
		}
		e.persistDatabase(db)
		e.notifyEntries(db)
		ok = true
	})
	return ok
}
