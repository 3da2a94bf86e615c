package queue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrStopped is returned when work is offered to a stopped queue.
var ErrStopped = errors.New("queue: stopped")

// Queue runs posted tasks one at a time, in posting order, on its own
// goroutine.
type Queue struct {
	name  string
	log   zerolog.Logger
	clock Clock

	mu      sync.Mutex
	tasks   []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock sets the clock used for delayed tasks.
func WithClock(c Clock) Option {
	return func(q *Queue) { q.clock = c }
}

// WithLogger sets the logger used to report task panics.
func WithLogger(l zerolog.Logger) Option {
	return func(q *Queue) { q.log = l }
}

// New starts a queue.
func New(name string, opts ...Option) *Queue {
	q := &Queue{
		name:  name,
		log:   zerolog.Nop(),
		clock: System(),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.log = q.log.With().Str("queue", name).Logger()
	go q.run()
	return q
}

func (q *Queue) Name() string { return q.name }
func (q *Queue) Clock() Clock { return q.clock }

// Post schedules fn. It reports false when the queue is stopped.
func (q *Queue) Post(fn func()) bool {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
	q.signal()
	return true
}

// PostDelayed schedules fn to be posted after d.
func (q *Queue) PostDelayed(d time.Duration, fn func()) Timer {
	return q.clock.AfterFunc(d, func() { q.Post(fn) })
}

// Sync posts fn and waits for it to run. It must not be called from a task
// running on q.
func (q *Queue) Sync(fn func()) bool {
	ran := make(chan struct{})
	if !q.Post(func() {
		defer close(ran)
		fn()
	}) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-q.done:
		// The task may have been the last one drained.
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

// Stop refuses new tasks; tasks already posted still run. Stop does not
// wait; use Done for that.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.mu.Unlock()
	q.signal()
}

// Done is closed once the queue is stopped and drained.
func (q *Queue) Done() <-chan struct{} { return q.done }

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.stopped {
			q.mu.Unlock()
			<-q.wake
			q.mu.Lock()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		batch := q.tasks
		q.tasks = nil
		q.mu.Unlock()

		for _, fn := range batch {
			q.exec(fn)
		}
	}
}

func (q *Queue) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Err(fmt.Errorf("%v", r)).Msg("task panicked")
		}
	}()
	fn()
}
