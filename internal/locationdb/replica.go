package locationdb

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"openpeer/internal/domain"
	"openpeer/internal/message"
	dbmsg "openpeer/internal/message/database"
	"openpeer/internal/message/info"
	"openpeer/internal/monitor"
	"openpeer/internal/observer"
	"openpeer/internal/queue"
)

// ReplicaConfig wires a Replica.
type ReplicaConfig struct {
	Engine     *Engine
	Dispatcher *monitor.Dispatcher
	Transport  domain.Transport
	// Remote is the transport destination serving Location.
	Remote   string
	Location domain.Location
	Domain   string
	Timeout  time.Duration
	Lifetime time.Duration
	Logger   zerolog.Logger
}

// Replica mirrors a remote peer location into the local engine. All of its
// state lives on the dispatcher queue.
type Replica struct {
	cfg ReplicaConfig
	q   *queue.Queue
	log zerolog.Logger

	handles    map[*monitor.Handle]struct{}
	subscribed map[string]bool
	unroute    []func()
	stopped    bool
	err        error

	changes observer.List[func(dbID string)]
}

func NewReplica(cfg ReplicaConfig) *Replica {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultLifetime
	}
	return &Replica{
		cfg: cfg,
		q:   cfg.Dispatcher.Queue(),
		log: cfg.Logger.With().
			Str("component", "replica").
			Str("location", cfg.Location.String()).
			Logger(),
		handles:    make(map[*monitor.Handle]struct{}),
		subscribed: make(map[string]bool),
	}
}

// OnChange registers fn to run on the dispatcher queue after each applied
// batch. dbID is empty for list changes.
func (r *Replica) OnChange(fn func(dbID string)) *observer.Subscription {
	return r.changes.Register(fn)
}

// Start subscribes to the remote database list.
func (r *Replica) Start() {
	d := r.cfg.Dispatcher
	r.unroute = append(r.unroute,
		d.Route(message.NotifyKey(dbmsg.Handler, dbmsg.MethodListNotify), r.onListNotify),
		d.Route(message.NotifyKey(dbmsg.Handler, dbmsg.MethodNotify), r.onNotify),
	)
	r.q.Post(r.subscribeList)
}

// Stop cancels outstanding requests and tells the remote to drop the
// subscriptions.
func (r *Replica) Stop() {
	for _, u := range r.unroute {
		u()
	}
	r.q.Post(func() {
		if r.stopped {
			return
		}
		r.stopped = true
		for h := range r.handles {
			h.Cancel()
		}
		r.handles = nil
		past := time.Unix(1, 0).UTC()
		for id := range r.subscribed {
			req := dbmsg.NewSubscribeRequest(r.cfg.Domain)
			req.Location = info.FromLocation(r.cfg.Location)
			req.DatabaseID = id
			req.Expires = past
			r.send(req)
		}
		req := dbmsg.NewListSubscribeRequest(r.cfg.Domain)
		req.Location = info.FromLocation(r.cfg.Location)
		req.Expires = past
		r.send(req)
		r.changes.Clear()
	})
}

// Err returns the last request failure, if any. It must run on the
// dispatcher queue.
func (r *Replica) Err() error { return r.err }

// Pending returns the number of outstanding requests. It must run on the
// dispatcher queue.
func (r *Replica) Pending() int { return len(r.handles) }

func (r *Replica) expires() time.Time {
	return r.q.Clock().Now().UTC().Truncate(time.Second).Add(r.cfg.Lifetime)
}

func (r *Replica) subscribeList() {
	if r.stopped {
		return
	}
	req := dbmsg.NewListSubscribeRequest(r.cfg.Domain)
	req.Location = info.FromLocation(r.cfg.Location)
	req.Version = r.cfg.Engine.ListVersion(r.cfg.Location)
	req.Expires = r.expires()
	r.request(req, func(res message.Message) {
		if list, ok := res.(*dbmsg.ListResult); ok {
			r.applyList(list)
		}
	})
}

func (r *Replica) subscribe(dbID string) {
	if r.stopped || r.subscribed[dbID] {
		return
	}
	r.subscribed[dbID] = true
	since, _ := r.cfg.Engine.DownloadedVersion(r.cfg.Location, dbID)
	req := dbmsg.NewSubscribeRequest(r.cfg.Domain)
	req.Location = info.FromLocation(r.cfg.Location)
	req.DatabaseID = dbID
	req.Version = since
	req.Expires = r.expires()
	req.Data = true
	r.request(req, func(res message.Message) {
		if entries, ok := res.(*dbmsg.EntriesResult); ok {
			r.applyEntries(dbID, entries)
		}
	})
}

func (r *Replica) request(req message.Message, onResult func(message.Message)) {
	var h *monitor.Handle
	h = r.cfg.Dispatcher.Monitor().Monitor(req, r.cfg.Timeout, func(res message.Message, err error) {
		delete(r.handles, h)
		if r.stopped {
			return
		}
		if err != nil {
			r.err = err
			r.log.Warn().Err(err).Str("method", string(req.Head().Method)).Msg("sync request failed")
			return
		}
		onResult(res)
	})
	r.handles[h] = struct{}{}
	r.send(req)
}

func (r *Replica) send(m message.Message) {
	to := r.cfg.Remote
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
		defer cancel()
		if err := r.cfg.Transport.Send(ctx, to, m); err != nil {
			r.log.Error().Err(err).Str("to", to).Msg("send failed")
		}
	}()
}

func (r *Replica) forUs(loc info.LocationInfo) bool {
	return loc.Location() == r.cfg.Location
}

func (r *Replica) onListNotify(m message.Message) {
	if n, ok := m.(*dbmsg.ListResult); ok && !r.stopped && r.forUs(n.Location) {
		r.applyList(n)
	}
}

func (r *Replica) onNotify(m message.Message) {
	n, ok := m.(*dbmsg.EntriesResult)
	if !ok || r.stopped || !r.forUs(n.Location) || !r.subscribed[n.Database.ID] {
		return
	}
	r.applyEntries(n.Database.ID, n)
}

func (r *Replica) applyList(list *dbmsg.ListResult) {
	recs := make([]domain.DatabaseRecord, 0, len(list.Databases))
	for _, d := range list.Databases {
		recs = append(recs, databaseRecord(r.cfg.Location, d))
	}
	r.cfg.Engine.ApplyDatabases(r.cfg.Location, recs, list.Version)
	for _, d := range list.Databases {
		if d.Disposition == domain.DispositionRemove {
			delete(r.subscribed, d.ID)
			continue
		}
		r.subscribe(d.ID)
	}
	r.changes.Each(func(fn func(string)) { fn("") })
}

func (r *Replica) applyEntries(dbID string, res *dbmsg.EntriesResult) {
	recs := make([]domain.EntryRecord, 0, len(res.Entries))
	for _, e := range res.Entries {
		recs = append(recs, entryRecord(dbID, e))
	}
	if !r.cfg.Engine.ApplyEntries(r.cfg.Location, dbID, recs, res.Version) {
		r.log.Warn().Str("database", dbID).Msg("entries for unknown database dropped")
		return
	}
	r.changes.Each(func(fn func(string)) { fn(dbID) })
}
