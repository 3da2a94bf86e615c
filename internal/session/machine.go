package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/monitor"
	"openpeer/internal/observer"
	"openpeer/internal/queue"
)

// machine is the state machine core shared by the sessions. Everything but
// the mutex-guarded fields runs on q.
type machine struct {
	cfg Config
	q   *queue.Queue
	log zerolog.Logger

	mu      sync.Mutex
	state   State
	err     error
	handles map[*monitor.Handle]func(error)

	unroute    []func()
	states     observer.List[StateFunc]
	onShutdown func(err error)
}

func newMachine(name string, cfg Config) *machine {
	return &machine{
		cfg:     cfg,
		q:       cfg.Dispatcher.Queue(),
		log:     cfg.Logger.With().Str("component", name).Logger(),
		handles: make(map[*monitor.Handle]func(error)),
	}
}

// State returns the current state.
func (m *machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the failure that shut the session down, if any.
func (m *machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Pending returns the number of outstanding requests.
func (m *machine) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// OnState registers fn for state changes. It runs on the session queue. No
// notification follows the final shutdown one.
func (m *machine) OnState(fn StateFunc) *observer.Subscription {
	return m.states.Register(fn)
}

// Shutdown stops the session. Outstanding requests are abandoned.
func (m *machine) Shutdown() {
	m.q.Post(func() { m.shutdown() })
}

func (m *machine) now() time.Time {
	return m.q.Clock().Now().UTC().Truncate(time.Second)
}

func (m *machine) route(key message.Key, fn monitor.Route) {
	m.unroute = append(m.unroute, m.cfg.Dispatcher.Route(key, func(msg message.Message) {
		if m.State() == StateShutdown {
			m.log.Warn().Str("key", key.String()).Msg("discarding message after shutdown")
			return
		}
		fn(msg)
	}))
}

func (m *machine) setState(s State) {
	m.mu.Lock()
	from := m.state
	if from == StateShutdown || from == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	m.mu.Unlock()
	m.log.Debug().Stringer("from", from).Stringer("to", s).Msg("state changed")
	m.states.Each(func(fn StateFunc) { fn(s, nil) })
}

func (m *machine) fail(err error) {
	m.mu.Lock()
	if m.state == StateShutdown {
		m.mu.Unlock()
		return
	}
	m.err = err
	m.mu.Unlock()
	m.log.Warn().Err(err).Msg("session failed")
	m.shutdown()
}

func (m *machine) shutdown() {
	m.mu.Lock()
	if m.state == StateShutdown {
		m.mu.Unlock()
		return
	}
	from := m.state
	m.state = StateShutdown
	err := m.err
	handles := m.handles
	m.handles = make(map[*monitor.Handle]func(error))
	m.mu.Unlock()

	for h, abort := range handles {
		h.Cancel()
		if abort != nil {
			abort(ErrShutdown)
		}
	}
	for _, u := range m.unroute {
		u()
	}
	m.unroute = nil
	if m.onShutdown != nil {
		m.onShutdown(err)
	}
	m.log.Debug().Stringer("from", from).Err(err).Msg("session shut down")
	m.states.Each(func(fn StateFunc) { fn(StateShutdown, err) })
	m.states.Clear()
}

// step sends a request that drives the state machine: a failure or timeout
// shuts the session down, and a result arriving after the state moved on
// is discarded.
func (m *machine) step(req message.Message, onResult func(message.Message)) {
	at := m.State()
	method := req.Head().Method
	m.call(req, nil, func(res message.Message, err error) {
		if err != nil {
			m.fail(fmt.Errorf("%s: %w", method, err))
			return
		}
		if s := m.State(); s != at {
			m.log.Warn().Str("method", string(method)).Stringer("state", s).Msg("discarding late result")
			return
		}
		onResult(res)
	})
}

// call sends a request and hands its outcome to fn. abort runs instead of fn
// when the session shuts down first.
func (m *machine) call(req message.Message, abort func(error), fn monitor.Handler) {
	var h *monitor.Handle
	h = m.cfg.Dispatcher.Monitor().Monitor(req, m.cfg.Timeout, func(res message.Message, err error) {
		if !m.forget(h) {
			return
		}
		fn(res, err)
	})
	m.mu.Lock()
	m.handles[h] = abort
	m.mu.Unlock()
	m.send(req, func(err error) {
		if !m.forget(h) {
			return
		}
		h.Cancel()
		if abort != nil {
			abort(err)
			return
		}
		m.fail(err)
	})
}

func (m *machine) forget(h *monitor.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.handles[h]; !ok {
		return false
	}
	delete(m.handles, h)
	return true
}

// send hands msg to the transport off the queue; onErr runs on the queue.
func (m *machine) send(msg message.Message, onErr func(error)) {
	to, timeout := m.cfg.To, m.cfg.Timeout
	method := msg.Head().Method
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := m.cfg.Transport.Send(ctx, to, msg); err != nil {
			m.log.Error().Err(err).Str("to", to).Str("method", string(method)).Msg("send failed")
			m.q.Post(func() { onErr(fmt.Errorf("send %s: %w", method, err)) })
		}
	}()
}

// awaitGrant resolves challenge through grant and continues with the bundle
// while the session is still waiting for it.
func (m *machine) awaitGrant(grant *NamespaceGrant, challenge info.ChallengeInfo, next func(info.ChallengeBundle)) {
	if grant == nil {
		m.fail(ErrNoGrant)
		return
	}
	m.setState(StateChallengeWait)
	grant.Query(challenge, func(b info.ChallengeBundle, err error) {
		m.q.Post(func() {
			if s := m.State(); s != StateChallengeWait {
				m.log.Warn().Stringer("state", s).Str("challenge", challenge.ID).Msg("discarding late bundle")
				return
			}
			if err != nil {
				m.fail(fmt.Errorf("namespace grant %s: %w", challenge.ID, err))
				return
			}
			next(b)
		})
	})
}

func unexpected(res message.Message) error {
	return fmt.Errorf("%w: %s", ErrBadResult, res.Head().Key())
}
