package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"openpeer/internal/domain"
	"openpeer/internal/message"
	"openpeer/internal/message/bootstrapper"
	"openpeer/internal/message/info"
	"openpeer/internal/message/rolodex"
	"openpeer/internal/monitor"
	"openpeer/internal/observer"
	"openpeer/internal/peer"
	"openpeer/internal/session"
)

var (
	// ErrLoginFailed wraps the failure of any session during login.
	ErrLoginFailed = errors.New("account: login failed")
	// ErrNotLoggedIn is returned by calls that need a completed login.
	ErrNotLoggedIn = errors.New("account: not logged in")
)

// Router learns where each service lives. relay.HTTP implements it.
type Router interface {
	SetRoute(name, url string)
}

// Config wires a Service.
type Config struct {
	Dispatcher *monitor.Dispatcher
	Transport  domain.Transport
	// Router is optional; without it services are addressed by handler name.
	Router Router
	Store  domain.AccountStore
	// Bootstrapper is the transport destination of the bootstrapper.
	Bootstrapper string
	Domain       string
	Identity     domain.Identity
	Agent        info.AgentInfo
	Push         info.PushRegistration
	// Grantor, when set, must have signed the namespace grant bundles.
	Grantor       *peer.Peer
	Timeout       time.Duration
	ProofLifetime time.Duration
	Logger        zerolog.Logger
}

// Service owns the sessions of one logged in account.
type Service struct {
	cfg Config
	log zerolog.Logger

	grant   *session.NamespaceGrant
	lockbox *session.Lockbox
	mailbox *session.PushMailbox
}

func New(cfg Config) *Service {
	if cfg.Bootstrapper == "" {
		cfg.Bootstrapper = string(bootstrapper.Handler)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = session.DefaultTimeout
	}
	return &Service{
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "account").Str("identity", cfg.Identity.URI).Logger(),
	}
}

func (s *Service) Lockbox() *session.Lockbox         { return s.lockbox }
func (s *Service) PushMailbox() *session.PushMailbox { return s.mailbox }
func (s *Service) Grant() *session.NamespaceGrant    { return s.grant }

// Login bootstraps and runs every session to Ready. It blocks until they
// are, one of them fails, or ctx ends; on failure everything is shut down.
// It must not be called from the dispatcher queue.
func (s *Service) Login(ctx context.Context) error {
	services, err := s.bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	s.log.Info().Int("services", len(services)).Msg("bootstrapped")

	resume, err := s.resume()
	if err != nil {
		return err
	}

	base := session.Config{
		Dispatcher:    s.cfg.Dispatcher,
		Transport:     s.cfg.Transport,
		Domain:        s.cfg.Domain,
		Timeout:       s.cfg.Timeout,
		ProofLifetime: s.cfg.ProofLifetime,
		Logger:        s.log,
	}
	identity := info.IdentityInfo{URI: s.cfg.Identity.URI, Provider: s.cfg.Domain}
	s.grant = session.NewNamespaceGrant(session.NamespaceGrantConfig{
		Config:  base,
		Agent:   s.cfg.Agent,
		Grantor: s.cfg.Grantor,
	})
	s.lockbox = session.NewLockbox(session.LockboxConfig{
		Config:   base,
		Agent:    s.cfg.Agent,
		Identity: identity,
		Grant:    s.grant,
		Resume:   resume,
	})
	s.mailbox = session.NewPushMailbox(session.PushMailboxConfig{
		Config:  base,
		Agent:   s.cfg.Agent,
		PeerURI: s.cfg.Identity.URI,
		Push:    s.cfg.Push,
		Grant:   s.grant,
	})

	lockboxDone := waitReady(s.lockbox.OnState)
	mailboxDone := waitReady(s.mailbox.OnState)
	s.grant.Start()
	s.lockbox.Start()
	s.mailbox.Start()

	for _, done := range []<-chan error{lockboxDone, mailboxDone} {
		select {
		case err = <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
		if err != nil {
			s.Shutdown()
			return fmt.Errorf("%w: %w", ErrLoginFailed, err)
		}
	}
	s.log.Info().Str("account", s.lockbox.Account().AccountID).Msg("logged in")
	return s.save()
}

// waitReady reports nil once a session is Ready, or the error that shut it
// down.
func waitReady(observe func(session.StateFunc) *observer.Subscription) <-chan error {
	done := make(chan error, 1)
	observe(func(st session.State, err error) {
		switch st {
		case session.StateReady:
			select {
			case done <- nil:
			default:
			}
		case session.StateShutdown:
			if err == nil {
				err = session.ErrShutdown
			}
			select {
			case done <- err:
			default:
			}
		}
	})
	return done
}

func (s *Service) now() time.Time {
	return s.cfg.Dispatcher.Queue().Clock().Now().UTC().Truncate(time.Second)
}

// Shutdown stops every session.
func (s *Service) Shutdown() {
	if s.mailbox != nil {
		s.mailbox.Shutdown()
	}
	if s.lockbox != nil {
		s.lockbox.Shutdown()
	}
	if s.grant != nil {
		s.grant.Shutdown()
	}
}

func (s *Service) bootstrap(ctx context.Context) ([]info.ServiceInfo, error) {
	req := bootstrapper.NewServicesGetRequest(s.cfg.Domain)
	req.Agent = s.cfg.Agent
	res, err := s.request(ctx, s.cfg.Bootstrapper, req)
	if err != nil {
		return nil, err
	}
	r, ok := res.(*bootstrapper.ServicesGetResult)
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrBadResult, res.Head().Key())
	}
	if s.cfg.Router != nil {
		for _, svc := range r.Services {
			if len(svc.Methods) > 0 && svc.Methods[0].URI != "" {
				s.cfg.Router.SetRoute(svc.Type, svc.Methods[0].URI)
			}
		}
	}
	return r.Services, nil
}

// Contacts fetches the rolodex contacts of the logged in identity.
func (s *Service) Contacts(ctx context.Context) ([]info.ContactInfo, error) {
	if s.lockbox == nil || s.lockbox.State() != session.StateReady {
		return nil, ErrNotLoggedIn
	}
	acct := s.lockbox.Account()
	now := s.now()
	lifetime := s.cfg.ProofLifetime
	if lifetime <= 0 {
		lifetime = session.DefaultProofLifetime
	}
	expires := now.Add(lifetime)

	access := rolodex.NewAccessRequest(s.cfg.Domain)
	access.Identity = info.IdentityInfo{URI: s.cfg.Identity.URI, Provider: s.cfg.Domain}
	access.Lockbox = info.LockboxInfo{
		AccountID:                acct.AccountID,
		AccessToken:              acct.AccessToken,
		AccessSecretProof:        session.Proof(acct.AccessSecret, rolodex.MethodAccess, acct.AccessToken, expires),
		AccessSecretProofExpires: expires,
	}
	res, err := s.request(ctx, string(rolodex.Handler), access)
	if err != nil {
		return nil, err
	}
	granted, ok := res.(*rolodex.AccessResult)
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrBadResult, res.Head().Key())
	}

	get := rolodex.NewContactsGetRequest(s.cfg.Domain)
	get.Refresh = true
	get.Access = info.AccessInfo{
		AccessToken:              granted.Access.AccessToken,
		AccessSecretProof:        session.Proof(granted.Access.AccessSecret, rolodex.MethodContactsGet, granted.Access.AccessToken, expires),
		AccessSecretProofExpires: expires,
	}
	res, err = s.request(ctx, string(rolodex.Handler), get)
	if err != nil {
		return nil, err
	}
	contacts, ok := res.(*rolodex.ContactsGetResult)
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrBadResult, res.Head().Key())
	}
	return contacts.Contacts, nil
}

// request sends one request outside any session and waits for its result.
func (s *Service) request(ctx context.Context, to string, req message.Message) (message.Message, error) {
	type outcome struct {
		res message.Message
		err error
	}
	done := make(chan outcome, 1)
	d := s.cfg.Dispatcher
	var h *monitor.Handle
	d.Queue().Sync(func() {
		h = d.Monitor().Monitor(req, s.cfg.Timeout, func(res message.Message, err error) {
			done <- outcome{res, err}
		})
	})
	if err := s.cfg.Transport.Send(ctx, to, req); err != nil {
		d.Queue().Post(h.Cancel)
		return nil, fmt.Errorf("send %s: %w", req.Head().Method, err)
	}
	select {
	case o := <-done:
		if o.err != nil {
			return nil, fmt.Errorf("%s: %w", req.Head().Method, o.err)
		}
		return o.res, nil
	case <-ctx.Done():
		d.Queue().Post(h.Cancel)
		return nil, ctx.Err()
	}
}

func (s *Service) resume() (info.LockboxInfo, error) {
	if s.cfg.Store == nil {
		return info.LockboxInfo{}, nil
	}
	p, ok, err := s.cfg.Store.LoadAccountProfile(s.cfg.Bootstrapper, s.cfg.Domain)
	if err != nil {
		return info.LockboxInfo{}, fmt.Errorf("load account profile: %w", err)
	}
	if !ok || !p.AccessSecretExpires.After(s.now()) {
		return info.LockboxInfo{}, nil
	}
	return info.LockboxInfo{
		AccountID:           p.AccountID,
		Domain:              p.Domain,
		AccessToken:         p.AccessToken,
		AccessSecret:        p.AccessSecret,
		AccessSecretExpires: p.AccessSecretExpires,
	}, nil
}

func (s *Service) save() error {
	if s.cfg.Store == nil {
		return nil
	}
	acct := s.lockbox.Account()
	err := s.cfg.Store.SaveAccountProfile(domain.AccountProfile{
		Bootstrapper:        s.cfg.Bootstrapper,
		Domain:              s.cfg.Domain,
		AccountID:           acct.AccountID,
		AccessToken:         acct.AccessToken,
		AccessSecret:        acct.AccessSecret,
		AccessSecretExpires: acct.AccessSecretExpires,
	})
	if err != nil {
		return fmt.Errorf("save account profile: %w", err)
	}
	return nil
}
