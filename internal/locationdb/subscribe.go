package locationdb

import (
	"openpeer/internal/domain"
	"openpeer/internal/observer"
	"openpeer/internal/queue"
)

// ListFunc receives database descriptors changed after the subscriber's
// cursor and the new cursor.
type ListFunc func(recs []domain.DatabaseRecord, next uint64)

// EntriesFunc receives entries changed after the subscriber's cursor and
// the new cursor.
type EntriesFunc func(recs []domain.EntryRecord, next uint64)

type listSub struct {
	q      *queue.Queue
	fn     ListFunc
	cursor uint64
}

type entrySub struct {
	q      *queue.Queue
	fn     EntriesFunc
	cursor uint64
}

// SubscribeList delivers every catalog change of loc after list version
// since to fn, on q. Pending changes are delivered right away.
func (e *Engine) SubscribeList(loc domain.Location, since uint64, q *queue.Queue, fn ListFunc) *observer.Subscription {
	var sub *observer.Subscription
	e.do(func() {
		c := e.catalog(loc, true)
		s := &listSub{q: q, fn: fn, cursor: since}
		sub = c.subs.Register(s)
		e.deliverList(c, s)
	})
	return sub
}

// SubscribeDatabase delivers every entry change of a live database after
// version since to fn, on q. It returns nil when the database is not live.
// The subscription ends by itself when the database is removed.
func (e *Engine) SubscribeDatabase(loc domain.Location, dbID string, since uint64, q *queue.Queue, fn EntriesFunc) *observer.Subscription {
	var sub *observer.Subscription
	e.do(func() {
		db := e.live(loc, dbID)
		if db == nil {
			return
		}
		s := &entrySub{q: q, fn: fn, cursor: since}
		sub = db.subs.Register(s)
		e.deliverEntries(db, s)
	})
	return sub
}

func (e *Engine) notifyList(c *catalog) {
	c.subs.Each(func(s *listSub) { e.deliverList(c, s) })
}

func (e *Engine) notifyEntries(db *database) {
	db.subs.Each(func(s *entrySub) { e.deliverEntries(db, s) })
}

func (e *Engine) deliverList(c *catalog, s *listSub) {
	recs, next := e.databaseUpdates(c.loc, s.cursor)
	s.cursor = next
	if len(recs) == 0 {
		return
	}
	fn := s.fn
	s.q.Post(func() { fn(recs, next) })
}

func (e *Engine) deliverEntries(db *database, s *entrySub) {
	recs, next := db.since(s.cursor, 0)
	s.cursor = next
	if len(recs) == 0 {
		return
	}
	fn := s.fn
	s.q.Post(func() { fn(recs, next) })
}
