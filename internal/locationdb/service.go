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

// DefaultLifetime is the subscription lifetime used when a request carries
// no expiry.
const DefaultLifetime = 10 * time.Minute

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Engine     *Engine
	Dispatcher *monitor.Dispatcher
	Transport  domain.Transport
	Domain     string
	Lifetime   time.Duration
	Logger     zerolog.Logger
}

// Service answers remote location database requests from an Engine. It runs
// on the dispatcher queue, which must differ from the engine queue.
type Service struct {
	cfg ServiceConfig
	q   *queue.Queue
	out *queue.Queue
	log zerolog.Logger

	subs    map[subKey]*remoteSub
	unroute []func()
}

type subKey struct {
	source string
	loc    domain.Location
	db     string
}

type remoteSub struct {
	sub     *observer.Subscription
	timer   queue.Timer
	release func()
}

func (r *remoteSub) cancel() {
	r.sub.Cancel()
	if r.timer != nil {
		r.timer.Stop()
	}
	if r.release != nil {
		r.release()
	}
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultLifetime
	}
	log := cfg.Logger.With().Str("component", "locationdb-service").Logger()
	q := cfg.Dispatcher.Queue()
	return &Service{
		cfg:  cfg,
		q:    q,
		out:  queue.New("locationdb-out", queue.WithLogger(log), queue.WithClock(q.Clock())),
		log:  log,
		subs: make(map[subKey]*remoteSub),
	}
}

// Start routes incoming requests to the service.
func (s *Service) Start() {
	d := s.cfg.Dispatcher
	s.unroute = append(s.unroute,
		d.Route(message.RequestKey(dbmsg.Handler, dbmsg.MethodListSubscribe), s.onRequest),
		d.Route(message.RequestKey(dbmsg.Handler, dbmsg.MethodSubscribe), s.onRequest),
		d.Route(message.RequestKey(dbmsg.Handler, dbmsg.MethodDataGet), s.onRequest),
	)
}

// Close drops every remote subscription and stops answering.
func (s *Service) Close() {
	for _, u := range s.unroute {
		u()
	}
	s.q.Sync(func() {
		for k, r := range s.subs {
			r.cancel()
			delete(s.subs, k)
		}
	})
	s.out.Stop()
}

// Subscriptions returns the number of active remote subscriptions.
func (s *Service) Subscriptions() int {
	n := 0
	s.q.Sync(func() { n = len(s.subs) })
	return n
}

func (s *Service) onRequest(m message.Message) {
	switch req := m.(type) {
	case *dbmsg.ListSubscribeRequest:
		s.listSubscribe(req)
	case *dbmsg.SubscribeRequest:
		s.subscribe(req)
	case *dbmsg.DataGetRequest:
		s.dataGet(req)
	}
}

func (s *Service) listSubscribe(req *dbmsg.ListSubscribeRequest) {
	loc := req.Location.Location()
	key := subKey{source: req.Source, loc: loc}
	s.drop(key)

	recs, next := s.cfg.Engine.DatabaseUpdates(loc, req.Version)
	res := &dbmsg.ListResult{
		Header:    message.ResultHeader(&req.Header),
		Location:  req.Location,
		Version:   next,
		Databases: databaseInfos(recs),
	}
	expires, ok := s.expiry(req.Expires)
	if ok {
		res.Expires = expires
	}
	s.send(req.Source, res)
	if !ok {
		return
	}

	to := req.Source
	sub := s.cfg.Engine.SubscribeList(loc, next, s.q, func(recs []domain.DatabaseRecord, next uint64) {
		n := dbmsg.NewListNotify(s.cfg.Domain)
		n.Location = info.FromLocation(loc)
		n.Version = next
		n.Expires = expires
		n.Databases = databaseInfos(recs)
		s.send(to, n)
	})
	s.keep(key, &remoteSub{sub: sub}, expires)
}

func (s *Service) subscribe(req *dbmsg.SubscribeRequest) {
	loc := req.Location.Location()
	key := subKey{source: req.Source, loc: loc, db: req.DatabaseID}
	s.drop(key)

	rec, ok := s.cfg.Engine.Database(loc, req.DatabaseID)
	if !ok {
		s.send(req.Source, message.NewErrorResult(&req.Header, message.CodeNotFound, "database not found"))
		return
	}
	entries, next := s.cfg.Engine.GetUpdates(loc, req.DatabaseID, req.Version)
	res := &dbmsg.EntriesResult{
		Header:   message.ResultHeader(&req.Header),
		Location: req.Location,
		Database: databaseInfo(rec),
		Version:  next,
		Entries:  entryInfos(entries, req.Data),
	}
	expires, live := s.expiry(req.Expires)
	if live {
		res.Expires = expires
	}
	s.send(req.Source, res)
	if !live {
		return
	}

	to, withData, dbID := req.Source, req.Data, req.DatabaseID
	release := s.cfg.Engine.Pin(loc, dbID)
	sub := s.cfg.Engine.SubscribeDatabase(loc, dbID, next, s.q, func(recs []domain.EntryRecord, next uint64) {
		n := dbmsg.NewNotify(s.cfg.Domain)
		n.Location = info.FromLocation(loc)
		n.Database = info.DatabaseInfo{ID: dbID}
		n.Version = next
		n.Expires = expires
		n.Entries = entryInfos(recs, withData)
		s.send(to, n)
	})
	s.keep(key, &remoteSub{sub: sub, release: release}, expires)
}

func (s *Service) dataGet(req *dbmsg.DataGetRequest) {
	loc := req.Location.Location()
	if _, ok := s.cfg.Engine.Database(loc, req.DatabaseID); !ok {
		s.send(req.Source, message.NewErrorResult(&req.Header, message.CodeNotFound, "database not found"))
		return
	}
	entries := s.cfg.Engine.GetEntries(loc, req.DatabaseID, req.EntryIDs)
	s.send(req.Source, &dbmsg.EntriesResult{
		Header:   message.ResultHeader(&req.Header),
		Location: req.Location,
		Database: info.DatabaseInfo{ID: req.DatabaseID},
		Entries:  entryInfos(entries, true),
	})
}

// expiry resolves a requested expiry; ok is false for an unsubscribe.
func (s *Service) expiry(requested time.Time) (time.Time, bool) {
	now := s.q.Clock().Now().UTC().Truncate(time.Second)
	if requested.IsZero() {
		return now.Add(s.cfg.Lifetime), true
	}
	return requested, requested.After(now)
}

func (s *Service) keep(key subKey, r *remoteSub, expires time.Time) {
	if r.sub == nil {
		if r.release != nil {
			r.release()
		}
		return
	}
	d := expires.Sub(s.q.Clock().Now())
	r.timer = s.q.PostDelayed(d, func() {
		if s.subs[key] == r {
			s.log.Debug().Str("source", key.source).Str("database", key.db).Msg("remote subscription expired")
			s.drop(key)
		}
	})
	s.subs[key] = r
}

func (s *Service) drop(key subKey) {
	if r, ok := s.subs[key]; ok {
		r.cancel()
		delete(s.subs, key)
	}
}

func (s *Service) send(to string, m message.Message) {
	s.out.Post(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.cfg.Transport.Send(ctx, to, m); err != nil {
			s.log.Error().Err(err).Str("to", to).Str("method", string(m.Head().Method)).Msg("send failed")
		}
	})
}
