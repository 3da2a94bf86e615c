package peer

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the registry when no size is configured.
const DefaultCacheSize = 1024

// Registry hands out one shared Peer per URI. Least recently used peers are
// evicted once the cache is full; holders keep their pointer.
type Registry struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *Peer]
}

func NewRegistry(size int) (*Registry, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *Peer](size)
	if err != nil {
		return nil, err
	}
	return &Registry{cache: c}, nil
}

// Get returns the shared peer for uri, creating it when missing.
func (r *Registry) Get(uri string) (*Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.cache.Get(uri); ok {
		return p, nil
	}
	p, err := New(uri)
	if err != nil {
		return nil, err
	}
	r.cache.Add(uri, p)
	return p, nil
}

// Lookup returns the cached peer without creating one.
func (r *Registry) Lookup(uri string) (*Peer, bool) {
	return r.cache.Get(uri)
}

func (r *Registry) Remove(uri string) {
	r.cache.Remove(uri)
}

func (r *Registry) Len() int { return r.cache.Len() }
