package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"openpeer/internal/crypto"
	"openpeer/internal/domain"
	"openpeer/internal/locationdb"
	"openpeer/internal/message/database"
	"openpeer/internal/message/info"
	"openpeer/internal/monitor"
	"openpeer/internal/peer"
	"openpeer/internal/protocol"
	"openpeer/internal/queue"
	"openpeer/internal/relay"
	"openpeer/internal/services/federation"
	"openpeer/internal/store"
)

// ExpiryInterval is how often the services host collects expired location
// databases.
const ExpiryInterval = time.Minute

// Server hosts the federated services and the location database service
// behind one HTTP endpoint.
type Server struct {
	cfg Config
	log zerolog.Logger

	dispatchQ *queue.Queue
	engineQ   *queue.Queue
	store     *store.LocationSQLStore

	Engine     *locationdb.Engine
	Federation *federation.Server
	Locations  *locationdb.Service
	HTTP       *relay.Server
}

// NewServer builds the services host. A fresh grant signing key is made for
// every run.
func NewServer(cfg Config, log zerolog.Logger) (*Server, error) {
	priv, pub, err := crypto.GenerateEd25519()
	if err != nil {
		return nil, err
	}
	signer := domain.Identity{URI: peer.JoinURI(cfg.Domain, "grant-service"), EdPub: pub, EdPriv: priv}

	s := &Server{cfg: cfg, log: log.With().Str("component", "services").Logger()}
	s.dispatchQ = queue.New("services", queue.WithLogger(log))
	s.engineQ = queue.New("locationdb", queue.WithLogger(log))
	d := monitor.NewDispatcher(s.dispatchQ, protocol.NewRegistry(), monitor.New(s.dispatchQ, log), log)
	s.HTTP = relay.NewServer(d, cfg.Timeout, log)

	s.store, err = store.OpenLocationSQLStore(cfg.LocationDBPath())
	if err != nil {
		s.stopQueues()
		return nil, err
	}
	s.Engine = locationdb.NewEngine(s.engineQ, locationdb.WithStore(s.store), locationdb.WithLogger(log))
	if err := s.Engine.Load(); err != nil {
		s.Close()
		return nil, fmt.Errorf("load location databases: %w", err)
	}

	base := s.publicURL()
	s.Federation, err = federation.New(federation.Config{
		Dispatcher:        d,
		Transport:         s.HTTP,
		Domain:            cfg.Domain,
		Signer:            signer,
		Services:          advertise(base),
		LockboxNamespaces: []string{base + "namespaces/lockbox"},
		MailboxNamespaces: []string{base + "namespaces/push-mailbox"},
		Logger:            log,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Locations = locationdb.NewService(locationdb.ServiceConfig{
		Engine:     s.Engine,
		Dispatcher: d,
		Transport:  s.HTTP,
		Domain:     cfg.Domain,
		Logger:     log,
	})
	return s, nil
}

func (s *Server) publicURL() string {
	u := s.cfg.PublicURL
	if u == "" {
		u = "http://" + s.cfg.Listen
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

// advertise lists every hosted handler at the same URL.
func advertise(base string) []info.ServiceInfo {
	handlers := append(protocol.Handlers(), database.Handler)
	out := make([]info.ServiceInfo, 0, len(handlers))
	for _, h := range handlers {
		out = append(out, info.ServiceInfo{
			ID:      string(h) + "-1",
			Type:    string(h),
			Version: "1.0",
			Methods: []info.ServiceMethod{{Name: string(h), URI: base}},
		})
	}
	return out
}

// Run serves until ctx ends, collecting expired databases meanwhile.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.Federation.Start()
	s.Locations.Start()

	srv := &http.Server{Handler: s.HTTP, ReadHeaderTimeout: 10 * time.Second}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("addr", ln.Addr().String()).Str("public", s.publicURL()).Msg("serving")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		t := time.NewTicker(ExpiryInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-t.C:
				if n := s.Engine.Expire(now); n > 0 {
					s.log.Info().Int("databases", n).Msg("expired")
				}
			}
		}
	})
	return g.Wait()
}

// Close stops the services and closes the store.
func (s *Server) Close() {
	if s.Locations != nil {
		s.Locations.Close()
	}
	if s.Federation != nil {
		s.Federation.Close()
	}
	s.stopQueues()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Error().Err(err).Msg("close store")
		}
	}
}

func (s *Server) stopQueues() {
	s.dispatchQ.Stop()
	s.engineQ.Stop()
}
