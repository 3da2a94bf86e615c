package monitor

import (
	"sync"

	"github.com/rs/zerolog"

	"openpeer/internal/message"
	"openpeer/internal/observer"
	"openpeer/internal/queue"
)

// Route receives a message the monitor did not claim.
type Route func(message.Message)

// Dispatcher decodes incoming messages on its queue, offers them to the
// monitor and routes the rest by key.
type Dispatcher struct {
	q   *queue.Queue
	reg *message.Registry
	mon *Monitor
	log zerolog.Logger

	mu     sync.Mutex
	routes map[message.Key]*observer.List[Route]
}

func NewDispatcher(q *queue.Queue, reg *message.Registry, mon *Monitor, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		q:      q,
		reg:    reg,
		mon:    mon,
		log:    log.With().Str("component", "dispatcher").Logger(),
		routes: make(map[message.Key]*observer.List[Route]),
	}
}

func (d *Dispatcher) Queue() *queue.Queue         { return d.q }
func (d *Dispatcher) Monitor() *Monitor           { return d.mon }
func (d *Dispatcher) Registry() *message.Registry { return d.reg }

// Route registers fn for key and returns its unregister function.
func (d *Dispatcher) Route(key message.Key, fn Route) func() {
	d.mu.Lock()
	l, ok := d.routes[key]
	if !ok {
		l = &observer.List[Route]{}
		d.routes[key] = l
	}
	d.mu.Unlock()
	return l.Register(fn).Cancel
}

// Deliver decodes b on the queue and dispatches it. Malformed input is
// logged and dropped.
func (d *Dispatcher) Deliver(b []byte, source string) {
	d.q.Post(func() {
		msg := d.reg.Parse(b, source)
		if msg == nil {
			d.log.Warn().Str("source", source).Int("bytes", len(b)).Msg("dropping malformed message")
			return
		}
		d.dispatch(msg)
	})
}

// DeliverMessage dispatches an already decoded message on the queue.
func (d *Dispatcher) DeliverMessage(msg message.Message) {
	d.q.Post(func() { d.dispatch(msg) })
}

func (d *Dispatcher) dispatch(msg message.Message) {
	if d.mon != nil && d.mon.Handle(msg) {
		return
	}
	hdr := msg.Head()
	d.mu.Lock()
	l := d.routes[hdr.Key()]
	d.mu.Unlock()
	if l == nil || l.Len() == 0 {
		d.log.Warn().Str("key", hdr.Key().String()).Str("id", hdr.ID).Msg("dropping unrouted message")
		return
	}
	d.log.Debug().Str("key", hdr.Key().String()).Str("id", hdr.ID).Msg("routing message")
	l.Each(func(fn Route) { fn(msg) })
}
