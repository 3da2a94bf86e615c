package account_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/crypto"
	"openpeer/internal/domain"
	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/message/lockbox"
	"openpeer/internal/monitor"
	"openpeer/internal/protocol"
	"openpeer/internal/queue"
	"openpeer/internal/relay"
	"openpeer/internal/services/account"
	"openpeer/internal/services/federation"
	"openpeer/internal/session"
	"openpeer/internal/store"
)

const testDomain = "example.com"

type routes struct {
	mu sync.Mutex
	m  map[string]string
}

func (r *routes) SetRoute(name, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil {
		r.m = make(map[string]string)
	}
	r.m[name] = url
}

func newIdentity(t *testing.T, name string) domain.Identity {
	t.Helper()
	priv, pub, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	return domain.Identity{URI: "peer://" + testDomain + "/" + name, EdPub: pub, EdPriv: priv}
}

func newDispatcher(t *testing.T, name string) *monitor.Dispatcher {
	t.Helper()
	q := queue.New(name)
	t.Cleanup(q.Stop)
	return monitor.NewDispatcher(q, protocol.NewRegistry(), monitor.New(q, zerolog.Nop()), zerolog.Nop())
}

type env struct {
	net    *relay.Network
	server *federation.Server

	mu   sync.Mutex
	sent []message.Header
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{net: relay.NewNetwork()}
	sd := newDispatcher(t, "server")
	sep := e.net.Attach("federation", sd)
	for _, h := range protocol.Handlers() {
		e.net.Alias(string(h), "federation")
	}
	srv, err := federation.New(federation.Config{
		Dispatcher: sd,
		Transport:  sep,
		Domain:     testDomain,
		Signer:     newIdentity(t, "grant-service"),
		Services: []info.ServiceInfo{{
			ID:      "lockbox-1",
			Type:    "lockbox",
			Version: "1.0",
			Methods: []info.ServiceMethod{{Name: "lockbox-access", URI: "https://lockbox.example.com/"}},
		}},
		LockboxNamespaces: []string{"https://meta.example.com/lockbox"},
	})
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Close)
	e.server = srv
	e.net.SetDrop(func(from, to string, m message.Message) bool {
		if from != "federation" {
			e.mu.Lock()
			e.sent = append(e.sent, *m.Head())
			e.mu.Unlock()
		}
		return false
	})
	return e
}

func (e *env) sentCount(method message.Method) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, h := range e.sent {
		if h.Method == method {
			n++
		}
	}
	return n
}

func (e *env) client(t *testing.T, name string, id domain.Identity, st domain.AccountStore, r account.Router) *account.Service {
	t.Helper()
	d := newDispatcher(t, name)
	svc := account.New(account.Config{
		Dispatcher: d,
		Transport:  e.net.Attach(name, d),
		Router:     r,
		Store:      st,
		Domain:     testDomain,
		Identity:   id,
		Agent:      info.AgentInfo{UserAgent: "openpeer-test/1.0"},
		Grantor:    e.server.Grantor(),
		Timeout:    2 * time.Second,
		Logger:     zerolog.Nop(),
	})
	t.Cleanup(svc.Shutdown)
	return svc
}

func TestLoginBringsSessionsReady(t *testing.T) {
	e := newEnv(t)
	r := &routes{}
	accounts := store.NewAccountFileStore(t.TempDir())
	alice := newIdentity(t, "alice")
	svc := e.client(t, "alice", alice, accounts, r)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Login(ctx))

	assert.Equal(t, session.StateReady, svc.Lockbox().State())
	assert.Equal(t, session.StateReady, svc.PushMailbox().State())
	assert.Equal(t, "https://lockbox.example.com/", r.m["lockbox"])

	p, ok, err := accounts.LoadAccountProfile("bootstrapper", testDomain)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, svc.Lockbox().Account().AccountID, p.AccountID)
	assert.NotEmpty(t, p.AccessSecret)
}

func TestLoginResumesSavedAccount(t *testing.T) {
	e := newEnv(t)
	accounts := store.NewAccountFileStore(t.TempDir())
	alice := newIdentity(t, "alice")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := e.client(t, "alice-1", alice, accounts, nil)
	require.NoError(t, first.Login(ctx))
	accountID := first.Lockbox().Account().AccountID
	first.Shutdown()

	second := e.client(t, "alice-2", alice, accounts, nil)
	require.NoError(t, second.Login(ctx))
	assert.Equal(t, accountID, second.Lockbox().Account().AccountID)
	// The resumed account was already granted, so only the first login
	// validated a lockbox challenge.
	assert.Equal(t, 1, e.sentCount(lockbox.MethodChallengeValidate))
}

func TestContacts(t *testing.T) {
	e := newEnv(t)
	alice := newIdentity(t, "alice")
	svc := e.client(t, "alice", alice, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := svc.Contacts(ctx)
	require.ErrorIs(t, err, account.ErrNotLoggedIn)

	require.NoError(t, svc.Login(ctx))
	e.server.AddContact(alice.URI, info.ContactInfo{
		URI:     "identity://example.com/bob",
		Name:    "Bob",
		PeerURI: "peer://example.com/bob",
	})

	var contacts []info.ContactInfo
	require.Eventually(t, func() bool {
		contacts, err = svc.Contacts(ctx)
		return err == nil && len(contacts) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Bob", contacts[0].Name)
	assert.Equal(t, "peer://example.com/bob", contacts[0].PeerURI)
}

func TestLoginFailsWithoutBootstrapper(t *testing.T) {
	net := relay.NewNetwork()
	d := newDispatcher(t, "lonely")
	svc := account.New(account.Config{
		Dispatcher: d,
		Transport:  net.Attach("lonely", d),
		Domain:     testDomain,
		Identity:   newIdentity(t, "alice"),
		Timeout:    200 * time.Millisecond,
		Logger:     zerolog.Nop(),
	})

	err := svc.Login(context.Background())
	assert.ErrorIs(t, err, account.ErrLoginFailed)
	assert.Nil(t, svc.Lockbox())
}
