// Package observer implements subscriber lists with explicit subscription
// handles. Dispatch iterates a snapshot, so subscribers may cancel (or
// register) from inside a callback.
package observer

import "sync"

// List holds subscribers of type T. The zero value is ready to use.
type List[T any] struct {
	mu   sync.Mutex
	subs []*entry[T]
}

type entry[T any] struct {
	value  T
	active bool
}

// Subscription removes one subscriber.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel unsubscribes. It is safe to call more than once and on nil.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Register adds d and returns its subscription.
func (l *List[T]) Register(d T) *Subscription {
	e := &entry[T]{value: d, active: true}
	l.mu.Lock()
	l.subs = append(l.subs, e)
	l.mu.Unlock()
	return &Subscription{cancel: func() { l.remove(e) }}
}

func (l *List[T]) remove(e *entry[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.active = false
	for i, s := range l.subs {
		if s == e {
			l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
			return
		}
	}
}

// Each calls fn for every subscriber registered at the time of the call, in
// registration order. Subscribers cancelled during the iteration are
// skipped.
func (l *List[T]) Each(fn func(T)) {
	l.mu.Lock()
	snapshot := make([]*entry[T], len(l.subs))
	copy(snapshot, l.subs)
	l.mu.Unlock()

	for _, e := range snapshot {
		l.mu.Lock()
		active := e.active
		l.mu.Unlock()
		if active {
			fn(e.value)
		}
	}
}

func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// Clear drops every subscriber.
func (l *List[T]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.subs {
		e.active = false
	}
	l.subs = nil
}
