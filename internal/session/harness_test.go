package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"openpeer/internal/crypto"
	"openpeer/internal/domain"
	"openpeer/internal/message"
	"openpeer/internal/monitor"
	"openpeer/internal/protocol"
	"openpeer/internal/queue"
	"openpeer/internal/relay"
	"openpeer/internal/services/federation"
	"openpeer/internal/session"
)

const (
	testDomain = "example.com"
	alice      = "peer://example.com/alice"
)

type harness struct {
	net    *relay.Network
	clock  *queue.FakeClock
	client *monitor.Dispatcher
	ep     *relay.Endpoint
	server *federation.Server

	mu   sync.Mutex
	sent []message.Header
}

type harnessOption func(*federation.Config)

func withNamespaces(lockbox, mailbox []string) harnessOption {
	return func(c *federation.Config) {
		c.LockboxNamespaces = lockbox
		c.MailboxNamespaces = mailbox
	}
}

func newDispatcher(t *testing.T, name string, opts ...queue.Option) *monitor.Dispatcher {
	t.Helper()
	q := queue.New(name, opts...)
	t.Cleanup(q.Stop)
	log := zerolog.Nop()
	return monitor.NewDispatcher(q, protocol.NewRegistry(), monitor.New(q, log), log)
}

func newSigner(t *testing.T) domain.Identity {
	t.Helper()
	priv, pub, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	return domain.Identity{URI: "peer://example.com/grant-service", EdPub: pub, EdPriv: priv}
}

// newHarness wires a client dispatcher (on a fake clock) to a federation
// server over an in-memory network.
func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	h := &harness{
		net:   relay.NewNetwork(),
		clock: queue.NewFakeClock(time.Now()),
	}
	h.client = newDispatcher(t, "client", queue.WithClock(h.clock))
	h.ep = h.net.Attach("client", h.client)

	sd := newDispatcher(t, "server")
	sep := h.net.Attach("federation", sd)
	for _, handler := range protocol.Handlers() {
		h.net.Alias(string(handler), "federation")
	}
	cfg := federation.Config{
		Dispatcher: sd,
		Transport:  sep,
		Domain:     testDomain,
		Signer:     newSigner(t),
	}
	for _, o := range opts {
		o(&cfg)
	}
	srv, err := federation.New(cfg)
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Close)
	h.server = srv

	h.net.SetDrop(func(from, to string, m message.Message) bool {
		if from == "client" {
			h.mu.Lock()
			h.sent = append(h.sent, *m.Head())
			h.mu.Unlock()
		}
		return false
	})
	return h
}

func (h *harness) config() session.Config {
	return session.Config{
		Dispatcher: h.client,
		Transport:  h.ep,
		Domain:     testDomain,
		Timeout:    5 * time.Second,
		Logger:     zerolog.Nop(),
	}
}

// sentMethods lists the methods of requests the client sent, in order.
func (h *harness) sentMethods() []message.Method {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []message.Method
	for _, hd := range h.sent {
		out = append(out, hd.Method)
	}
	return out
}

// stateLog records the state notifications of a session.
type stateLog struct {
	mu     sync.Mutex
	states []session.State
	errs   []error
}

func (l *stateLog) observe(s session.State, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
	l.errs = append(l.errs, err)
}

func (l *stateLog) snapshot() []session.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]session.State(nil), l.states...)
}

func (l *stateLog) count(s session.State) int {
	n := 0
	for _, st := range l.snapshot() {
		if st == s {
			n++
		}
	}
	return n
}

func waitState(t *testing.T, get func() session.State, want session.State) {
	t.Helper()
	require.Eventually(t, func() bool { return get() == want }, 2*time.Second, 5*time.Millisecond,
		"want state %s", want)
}
