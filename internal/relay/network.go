package relay

import (
	"context"
	"fmt"
	"sync"

	"openpeer/internal/message"
)

// DropFunc decides whether a message in flight is lost.
type DropFunc func(from, to string, m message.Message) bool

// Network is an in-memory switch between named endpoints.
type Network struct {
	mu        sync.RWMutex
	endpoints map[string]Receiver
	aliases   map[string]string
	drop      DropFunc
}

func NewNetwork() *Network {
	return &Network{
		endpoints: make(map[string]Receiver),
		aliases:   make(map[string]string),
	}
}

// Attach registers r under name and returns the endpoint's transport.
func (n *Network) Attach(name string, r Receiver) *Endpoint {
	n.mu.Lock()
	n.endpoints[name] = r
	n.mu.Unlock()
	return &Endpoint{net: n, name: name}
}

// Alias routes messages for alias to the endpoint name.
func (n *Network) Alias(alias, name string) {
	n.mu.Lock()
	n.aliases[alias] = name
	n.mu.Unlock()
}

// SetDrop installs a loss filter; nil delivers everything.
func (n *Network) SetDrop(fn DropFunc) {
	n.mu.Lock()
	n.drop = fn
	n.mu.Unlock()
}

func (n *Network) lookup(to string) (Receiver, DropFunc, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if r, ok := n.endpoints[to]; ok {
		return r, n.drop, true
	}
	if name, ok := n.aliases[to]; ok {
		r, ok := n.endpoints[name]
		return r, n.drop, ok
	}
	return nil, nil, false
}

// Endpoint is one attached party.
type Endpoint struct {
	net  *Network
	name string
}

func (e *Endpoint) Name() string { return e.name }

// Send encodes m and hands it to the destination's receiver with this
// endpoint as the source.
func (e *Endpoint) Send(_ context.Context, to string, m message.Message) error {
	r, drop, ok := e.net.lookup(to)
	if !ok {
		return fmt.Errorf("%s: %w", to, ErrNoRoute)
	}
	if drop != nil && drop(e.name, to, m) {
		return nil
	}
	b, err := message.EncodeBytes(m)
	if err != nil {
		return err
	}
	r.Deliver(b, e.name)
	return nil
}

// Close detaches the endpoint.
func (e *Endpoint) Close() {
	e.net.mu.Lock()
	delete(e.net.endpoints, e.name)
	e.net.mu.Unlock()
}
