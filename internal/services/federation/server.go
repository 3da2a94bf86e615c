package federation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"openpeer/internal/crypto"
	"openpeer/internal/domain"
	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/monitor"
	"openpeer/internal/peer"
	"openpeer/internal/queue"
	"openpeer/internal/session"
)

const (
	DefaultAccessLifetime = 24 * time.Hour
	DefaultPushLifetime   = 7 * 24 * time.Hour
)

// Config wires a Server.
type Config struct {
	Dispatcher *monitor.Dispatcher
	Transport  domain.Transport
	Domain     string
	// Signer signs namespace grant bundles; its public key verifies them.
	Signer   domain.Identity
	Services []info.ServiceInfo
	// LockboxNamespaces and MailboxNamespaces are requested by the access
	// challenges. A service with no namespaces issues no challenge.
	LockboxNamespaces []string
	MailboxNamespaces []string
	AccessLifetime    time.Duration
	PushLifetime      time.Duration
	Logger            zerolog.Logger
}

// Server holds all service state on the dispatcher queue.
type Server struct {
	cfg     Config
	q       *queue.Queue
	out     *queue.Queue
	log     zerolog.Logger
	grantor *peer.Peer

	accounts   map[string]*account
	byIdentity map[string]*account
	creds      map[string]*credential
	challenges map[string]*pendingChallenge
	mailboxes  map[string]*mailbox

	unroute []func()
}

type credential struct {
	service message.Handler
	owner   string
	secret  string
	expires time.Time
}

type pendingChallenge struct {
	service message.Handler
	owner   string
}

func New(cfg Config) (*Server, error) {
	if cfg.AccessLifetime <= 0 {
		cfg.AccessLifetime = DefaultAccessLifetime
	}
	if cfg.PushLifetime <= 0 {
		cfg.PushLifetime = DefaultPushLifetime
	}
	grantor, err := peer.NewWithKey(cfg.Signer.URI, cfg.Signer.EdPub)
	if err != nil {
		return nil, fmt.Errorf("federation signer: %w", err)
	}
	log := cfg.Logger.With().Str("component", "federation").Logger()
	q := cfg.Dispatcher.Queue()
	return &Server{
		cfg:        cfg,
		q:          q,
		out:        queue.New("federation-out", queue.WithLogger(log), queue.WithClock(q.Clock())),
		log:        log,
		grantor:    grantor,
		accounts:   make(map[string]*account),
		byIdentity: make(map[string]*account),
		creds:      make(map[string]*credential),
		challenges: make(map[string]*pendingChallenge),
		mailboxes:  make(map[string]*mailbox),
	}, nil
}

// Grantor returns the peer whose signature every bundle carries.
func (s *Server) Grantor() *peer.Peer { return s.grantor }

// Start routes every service request to the server.
func (s *Server) Start() {
	s.routeBootstrapper()
	s.routeGrant()
	s.routeLockbox()
	s.routeMailbox()
	s.routeRolodex()
}

// Close stops answering.
func (s *Server) Close() {
	for _, u := range s.unroute {
		u()
	}
	s.unroute = nil
	s.out.Stop()
}

func (s *Server) handle(h message.Handler, m message.Method, fn func(message.Message)) {
	s.unroute = append(s.unroute, s.cfg.Dispatcher.Route(message.RequestKey(h, m), fn))
}

func (s *Server) now() time.Time {
	return s.q.Clock().Now().UTC().Truncate(time.Second)
}

func (s *Server) send(to string, m message.Message) {
	s.out.Post(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.cfg.Transport.Send(ctx, to, m); err != nil {
			s.log.Error().Err(err).Str("to", to).Str("method", string(m.Head().Method)).Msg("send failed")
		}
	})
}

func (s *Server) reply(req *message.Header, res message.Message) {
	s.send(req.Source, res)
}

func (s *Server) failure(req *message.Header, code int, reason string) {
	s.log.Debug().Str("method", string(req.Method)).Int("code", code).Str("reason", reason).Msg("request refused")
	s.send(req.Source, message.NewErrorResult(req, code, reason))
}

// issue creates credentials for owner on service.
func (s *Server) issue(service message.Handler, owner string) (token, secret string, expires time.Time, err error) {
	secret, err = crypto.RandomString(32)
	if err != nil {
		return "", "", time.Time{}, err
	}
	token = uuid.NewString()
	expires = s.now().Add(s.cfg.AccessLifetime)
	s.creds[token] = &credential{service: service, owner: owner, secret: secret, expires: expires}
	return token, secret, expires, nil
}

// authorize checks an access proof for method against the credentials of
// service.
func (s *Server) authorize(service message.Handler, method message.Method, token, proof string, expires time.Time) (*credential, bool) {
	c, ok := s.creds[token]
	if !ok || c.service != service || !c.expires.After(s.now()) {
		return nil, false
	}
	if !session.CheckProof(c.secret, method, token, proof, expires, s.now()) {
		return nil, false
	}
	return c, true
}

func (s *Server) challenge(service message.Handler, owner, name string, namespaces []string) info.ChallengeInfo {
	id := uuid.NewString()
	s.challenges[id] = &pendingChallenge{service: service, owner: owner}
	return info.ChallengeInfo{
		ID:         id,
		Name:       name,
		URL:        "https://" + s.cfg.Domain + "/grant",
		Namespaces: namespaces,
	}
}

// validate accepts bundles answering a challenge issued to owner and signed
// by the grantor.
func (s *Server) validate(service message.Handler, owner string, bundles []info.ChallengeBundle) bool {
	for _, b := range bundles {
		pc, ok := s.challenges[b.Challenge.ID]
		if !ok || pc.service != service || pc.owner != owner {
			continue
		}
		if !s.grantor.VerifyBundle(b) {
			s.log.Warn().Str("challenge", b.Challenge.ID).Msg("bundle signature rejected")
			continue
		}
		delete(s.challenges, b.Challenge.ID)
		return true
	}
	return false
}
