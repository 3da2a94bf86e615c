package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"openpeer/internal/domain"
	"openpeer/internal/locationdb"
	"openpeer/internal/monitor"
	"openpeer/internal/peer"
	"openpeer/internal/protocol"
	"openpeer/internal/queue"
	"openpeer/internal/relay"
	"openpeer/internal/services/account"
	"openpeer/internal/services/identity"
	"openpeer/internal/store"
)

// App is the client side dependency graph. Commands build one per run and
// Close it when done.
type App struct {
	Config     Config
	Log        zerolog.Logger
	Identities *identity.Service
	Accounts   *store.AccountFileStore
	Peers      *peer.Registry

	mu        sync.Mutex
	locations *store.LocationSQLStore
	engine    *locationdb.Engine
	queues    []*queue.Queue
	accounts  []*account.Service
}

// New builds the stores and services rooted at cfg.Home.
func New(cfg Config, log zerolog.Logger) (*App, error) {
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}
	peers, err := peer.NewRegistry(cfg.PeerCache)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:     cfg,
		Log:        log,
		Identities: identity.New(store.NewIdentityFileStore(cfg.Home)),
		Accounts:   store.NewAccountFileStore(cfg.Home),
		Peers:      peers,
	}, nil
}

func (a *App) queue(name string) *queue.Queue {
	q := queue.New(name, queue.WithLogger(a.Log))
	a.queues = append(a.queues, q)
	return q
}

// Engine opens the local location database store and loads it into an
// engine on first use.
func (a *App) Engine() (*locationdb.Engine, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.engine != nil {
		return a.engine, nil
	}
	s, err := store.OpenLocationSQLStore(a.Config.LocationDBPath())
	if err != nil {
		return nil, err
	}
	e := locationdb.NewEngine(a.queue("locationdb"),
		locationdb.WithStore(s),
		locationdb.WithLogger(a.Log),
	)
	if err := e.Load(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("load location databases: %w", err)
	}
	a.locations, a.engine = s, e
	return e, nil
}

// Login unlocks the local identity and logs it in through the configured
// bootstrapper over HTTP.
func (a *App) Login(ctx context.Context, passphrase string) (*account.Service, error) {
	id, err := a.Identities.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	q := a.queue("client")
	a.mu.Unlock()
	d := monitor.NewDispatcher(q, protocol.NewRegistry(), monitor.New(q, a.Log), a.Log)
	transport := relay.NewHTTP(d)

	svc := account.New(account.Config{
		Dispatcher:    d,
		Transport:     transport,
		Router:        transport,
		Store:         a.Accounts,
		Bootstrapper:  a.Config.Bootstrapper,
		Domain:        a.Config.Domain,
		Identity:      id,
		Agent:         a.Config.AgentInfo(),
		Push:          a.Config.PushRegistration(q.Clock().Now()),
		Timeout:       a.Config.Timeout,
		ProofLifetime: a.Config.ProofLifetime,
		Logger:        a.Log,
	})
	if err := svc.Login(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.accounts = append(a.accounts, svc)
	a.mu.Unlock()
	return svc, nil
}

// syncPoll is how often SyncLocation checks whether the replica went idle.
const syncPoll = 20 * time.Millisecond

// SyncLocation pulls loc from the location database service at remote into
// the local engine. It returns once every requested database has answered,
// with the first request failure if any.
func (a *App) SyncLocation(ctx context.Context, remote string, loc domain.Location) error {
	e, err := a.Engine()
	if err != nil {
		return err
	}
	a.mu.Lock()
	q := a.queue("sync")
	a.mu.Unlock()
	d := monitor.NewDispatcher(q, protocol.NewRegistry(), monitor.New(q, a.Log), a.Log)

	rep := locationdb.NewReplica(locationdb.ReplicaConfig{
		Engine:     e,
		Dispatcher: d,
		Transport:  relay.NewHTTP(d),
		Remote:     remote,
		Location:   loc,
		Domain:     a.Config.Domain,
		Timeout:    a.Config.Timeout,
		// One-shot pulls leave nothing for the remote to keep alive.
		Lifetime: a.Config.Timeout,
		Logger:   a.Log,
	})
	rep.Start()
	defer rep.Stop()

	t := time.NewTicker(syncPoll)
	defer t.Stop()
	for {
		var (
			pending int
			failed  error
		)
		if !q.Sync(func() { pending, failed = rep.Pending(), rep.Err() }) {
			return locationdb.ErrStopped
		}
		if failed != nil {
			return fmt.Errorf("sync %s: %w", loc, failed)
		}
		if pending == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Close shuts down logged in accounts, stops the queues and closes the
// stores.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, svc := range a.accounts {
		svc.Shutdown()
	}
	for _, q := range a.queues {
		q.Stop()
	}
	var errs []error
	if a.locations != nil {
		errs = append(errs, a.locations.Close())
	}
	a.accounts, a.queues, a.locations, a.engine = nil, nil, nil, nil
	return errors.Join(errs...)
}
