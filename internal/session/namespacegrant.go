package session

import (
	"fmt"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/message/namespacegrant"
	"openpeer/internal/observer"
	"openpeer/internal/peer"
)

// QueryFunc receives the signed bundle answering one challenge.
type QueryFunc func(b info.ChallengeBundle, err error)

// WindowFunc observes namespace-grant-window notifies.
type WindowFunc func(ready, visible bool)

// NamespaceGrantConfig configures a NamespaceGrant session.
type NamespaceGrantConfig struct {
	Config
	Agent info.AgentInfo
	// Grantor, when set, must have signed every bundle returned.
	Grantor *peer.Peer
}

// NamespaceGrant batches namespace grant challenges from other sessions into
// namespace-grant-start requests.
//
//	Pending -> Ready <-> Waiting -> Shutdown
type NamespaceGrant struct {
	*machine
	agent   info.AgentInfo
	grantor *peer.Peer

	pending     []*Query
	inflight    []*Query
	flushPosted bool
	windows     observer.List[WindowFunc]
}

// Query is one outstanding challenge.
type Query struct {
	g         *NamespaceGrant
	challenge info.ChallengeInfo
	fn        QueryFunc
	done      bool
}

// Cancel drops the query; its callback will not run.
func (q *Query) Cancel() {
	q.g.q.Post(func() { q.done = true })
}

func NewNamespaceGrant(cfg NamespaceGrantConfig) *NamespaceGrant {
	g := &NamespaceGrant{
		machine: newMachine("namespace-grant", cfg.Config.withDefaults(namespacegrant.Handler)),
		agent:   cfg.Agent,
		grantor: cfg.Grantor,
	}
	g.onShutdown = g.abortQueries
	return g
}

// Start makes the session accept challenges.
func (g *NamespaceGrant) Start() {
	g.q.Post(func() {
		if g.State() != StatePending {
			return
		}
		g.route(message.NotifyKey(namespacegrant.Handler, namespacegrant.MethodWindow), g.onWindow)
		g.setState(StateReady)
		g.flush()
	})
}

// OnWindow registers fn for grant window notifies.
func (g *NamespaceGrant) OnWindow(fn WindowFunc) *observer.Subscription {
	return g.windows.Register(fn)
}

// Query asks for challenge to be granted. Challenges queried before the next
// flush are sent together. fn runs on the session queue.
func (g *NamespaceGrant) Query(challenge info.ChallengeInfo, fn QueryFunc) *Query {
	qr := &Query{g: g, challenge: challenge, fn: fn}
	ok := g.q.Post(func() {
		if g.State() == StateShutdown {
			qr.finish(info.ChallengeBundle{}, ErrShutdown)
			return
		}
		g.pending = append(g.pending, qr)
		if !g.flushPosted {
			g.flushPosted = true
			g.q.Post(g.flush)
		}
	})
	if !ok {
		fn(info.ChallengeBundle{}, ErrShutdown)
	}
	return qr
}

func (q *Query) finish(b info.ChallengeBundle, err error) {
	if q.done {
		return
	}
	q.done = true
	q.fn(b, err)
}

func (g *NamespaceGrant) flush() {
	g.flushPosted = false
	if g.State() != StateReady {
		return
	}
	var batch []*Query
	for _, q := range g.pending {
		if !q.done {
			batch = append(batch, q)
		}
	}
	g.pending = nil
	if len(batch) == 0 {
		return
	}

	req := namespacegrant.NewStartRequest(g.cfg.Domain)
	req.Agent = g.agent
	for _, q := range batch {
		req.Challenges = append(req.Challenges, q.challenge)
	}
	g.inflight = batch
	g.setState(StateWaiting)
	g.log.Debug().Int("challenges", len(batch)).Msg("starting grant")
	g.step(req, func(res message.Message) {
		r, ok := res.(*namespacegrant.StartResult)
		if !ok {
			g.fail(unexpected(res))
			return
		}
		batch := g.inflight
		g.inflight = nil
		g.setState(StateReady)
		for _, q := range batch {
			g.answer(q, r)
		}
		g.flush()
	})
}

func (g *NamespaceGrant) answer(q *Query, r *namespacegrant.StartResult) {
	b, ok := r.Bundle(q.challenge.ID)
	switch {
	case !ok:
		q.finish(info.ChallengeBundle{}, fmt.Errorf("%s: %w", q.challenge.ID, ErrNoBundle))
	case g.grantor != nil && !g.grantor.VerifyBundle(b):
		q.finish(info.ChallengeBundle{}, fmt.Errorf("%s: %w", q.challenge.ID, ErrBadSignature))
	default:
		q.finish(b, nil)
	}
}

func (g *NamespaceGrant) onWindow(msg message.Message) {
	n, ok := msg.(*namespacegrant.WindowNotify)
	if !ok {
		return
	}
	g.log.Debug().Bool("ready", n.Ready).Bool("visible", n.Visible).Msg("grant window")
	g.windows.Each(func(fn WindowFunc) { fn(n.Ready, n.Visible) })
}

func (g *NamespaceGrant) abortQueries(err error) {
	if err == nil {
		err = ErrShutdown
	}
	qs := append(g.inflight, g.pending...)
	g.inflight, g.pending = nil, nil
	for _, q := range qs {
		q.finish(info.ChallengeBundle{}, err)
	}
	g.windows.Clear()
}
