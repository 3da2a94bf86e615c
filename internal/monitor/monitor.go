package monitor

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"openpeer/internal/message"
	"openpeer/internal/queue"
)

// ErrTimeout wraps the failure delivered when a request gets no reply in
// time.
var ErrTimeout = errors.New("monitor: request timed out")

// Handler receives the outcome of a monitored request. err is non-nil for
// failure results and timeouts; res is then the failure result.
type Handler func(res message.Message, err error)

// Monitor tracks outstanding requests. All methods must run on the queue
// passed to New.
type Monitor struct {
	q       *queue.Queue
	log     zerolog.Logger
	pending map[string][]*Handle
}

// Handle is one outstanding request.
type Handle struct {
	m       *Monitor
	req     message.Header
	expect  []message.Key
	handler Handler
	timer   queue.Timer
	done    bool
}

func New(q *queue.Queue, log zerolog.Logger) *Monitor {
	return &Monitor{
		q:       q,
		log:     log.With().Str("component", "monitor").Logger(),
		pending: make(map[string][]*Handle),
	}
}

// Monitor starts tracking req. Without expect, the result of the request's
// own method is expected. A non-positive timeout never expires.
func (m *Monitor) Monitor(req message.Message, timeout time.Duration, h Handler, expect ...message.Key) *Handle {
	hdr := *req.Head()
	if len(expect) == 0 {
		expect = []message.Key{message.ResultKey(hdr.Handler, hdr.Method)}
	}
	hd := &Handle{m: m, req: hdr, expect: expect, handler: h}
	m.pending[hdr.ID] = append(m.pending[hdr.ID], hd)
	if timeout > 0 {
		hd.timer = m.q.PostDelayed(timeout, hd.expire)
	}
	m.log.Debug().Str("id", hdr.ID).Str("method", string(hdr.Method)).Dur("timeout", timeout).Msg("monitoring request")
	return hd
}

// Handle offers msg to the outstanding requests and reports whether one of
// them consumed it.
func (m *Monitor) Handle(msg message.Message) bool {
	hdr := msg.Head()
	if hdr.Kind == message.KindRequest || hdr.ID == "" {
		return false
	}
	for _, hd := range m.pending[hdr.ID] {
		if hd.done || !hd.matches(hdr) {
			continue
		}
		hd.finish()
		var err error
		if hdr.Err != nil {
			err = hdr.Err
		}
		hd.handler(msg, err)
		return true
	}
	return false
}

// Pending returns the number of outstanding requests.
func (m *Monitor) Pending() int {
	n := 0
	for _, hs := range m.pending {
		n += len(hs)
	}
	return n
}

// ID returns the correlation id of the monitored request.
func (h *Handle) ID() string { return h.req.ID }

// Done reports whether the handle has completed or been cancelled.
func (h *Handle) Done() bool { return h == nil || h.done }

// Cancel stops monitoring without a callback. It is idempotent and safe on
// nil.
func (h *Handle) Cancel() {
	if h == nil || h.done {
		return
	}
	h.finish()
	h.m.log.Debug().Str("id", h.req.ID).Msg("monitor cancelled")
}

func (h *Handle) matches(hdr *message.Header) bool {
	key := hdr.Key()
	for _, k := range h.expect {
		if k == key {
			return true
		}
	}
	// A failure result of the request's own method always answers it.
	return hdr.Failed() && hdr.Kind == message.KindResult &&
		hdr.Handler == h.req.Handler && hdr.Method == h.req.Method
}

func (h *Handle) finish() {
	h.done = true
	if h.timer != nil {
		h.timer.Stop()
	}
	m := h.m
	hs := m.pending[h.req.ID]
	for i, other := range hs {
		if other == h {
			hs = append(hs[:i:i], hs[i+1:]...)
			break
		}
	}
	if len(hs) == 0 {
		delete(m.pending, h.req.ID)
	} else {
		m.pending[h.req.ID] = hs
	}
}

func (h *Handle) expire() {
	if h.done {
		return
	}
	h.finish()
	res := message.NewErrorResult(&h.req, message.CodeRequestTimeout, "request timed out")
	h.m.log.Warn().Str("id", h.req.ID).Str("method", string(h.req.Method)).Msg("request timed out")
	h.handler(res, fmt.Errorf("%s: %w: %w", h.req.Method, ErrTimeout, res.Err))
}
