package locationdb

import (
	"github.com/google/btree"

	"openpeer/internal/domain"
	"openpeer/internal/observer"
)

const btreeDegree = 16

type database struct {
	rec     domain.DatabaseRecord
	entries map[string]*domain.EntryRecord
	log     *btree.BTreeG[*domain.EntryRecord]
	pins    int
	subs    observer.List[*entrySub]
}

func newDatabase(rec domain.DatabaseRecord) *database {
	return &database{
		rec:     rec,
		entries: make(map[string]*domain.EntryRecord),
		log: btree.NewG(btreeDegree, func(a, b *domain.EntryRecord) bool {
			return a.UpdateVersion < b.UpdateVersion
		}),
	}
}

// put stores e, re-indexing it under its (new) update version.
func (d *database) put(e *domain.EntryRecord) {
	if old, ok := d.entries[e.EntryID]; ok {
		d.log.Delete(old)
	}
	d.entries[e.EntryID] = e
	d.log.ReplaceOrInsert(e)
	if e.UpdateVersion > d.rec.Version {
		d.rec.Version = e.UpdateVersion
	}
}

func (d *database) nextVersion() uint64 {
	d.rec.Version++
	return d.rec.Version
}

// since returns copies of entries with update version > v, ascending, at
// most max of them when max > 0.
func (d *database) since(v uint64, max int) ([]domain.EntryRecord, uint64) {
	var out []domain.EntryRecord
	next := v
	d.log.AscendGreaterOrEqual(&domain.EntryRecord{UpdateVersion: v + 1}, func(e *domain.EntryRecord) bool {
		out = append(out, *e)
		next = e.UpdateVersion
		return max <= 0 || len(out) < max
	})
	return out, next
}

func (d *database) removed() bool { return d.rec.Disposition == domain.DispositionRemove }

type catalog struct {
	loc         domain.Location
	listVersion uint64
	dbs         map[string]*database
	changes     *btree.BTreeG[*database]
	subs        observer.List[*listSub]
}

func newCatalog(loc domain.Location) *catalog {
	return &catalog{
		loc: loc,
		dbs: make(map[string]*database),
		changes: btree.NewG(btreeDegree, func(a, b *database) bool {
			return a.rec.UpdateVersion < b.rec.UpdateVersion
		}),
	}
}

// touch records a catalog change of db under a new list version, or under
// the given version when it is not zero (replicated changes).
func (c *catalog) touch(db *database, version uint64) {
	c.changes.Delete(db)
	if version == 0 {
		c.listVersion++
		version = c.listVersion
	} else if version > c.listVersion {
		c.listVersion = version
	}
	db.rec.UpdateVersion = version
	c.dbs[db.rec.DatabaseID] = db
	c.changes.ReplaceOrInsert(db)
}

func (c *catalog) since(v uint64, include func(*database) bool) ([]domain.DatabaseRecord, uint64) {
	var out []domain.DatabaseRecord
	next := v
	c.changes.AscendGreaterOrEqual(&database{rec: domain.DatabaseRecord{UpdateVersion: v + 1}}, func(db *database) bool {
		if include(db) {
			out = append(out, db.rec)
		}
		next = db.rec.UpdateVersion
		return true
	})
	return out, next
}
