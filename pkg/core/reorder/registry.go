package reorder

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/sirupsen/logrus"
)

// DefaultRegistrySize is the number of engines kept before the least
// recently used idle one is dropped.
const DefaultRegistrySize = 1024

// Registry keeps one engine per collection so that a collection never has
// two commits in flight at once within this process.
type Registry struct {
	mu      sync.Mutex
	engines *simplelru.LRU[string, *Engine]
	size    int
	log     logrus.FieldLogger
}

type RegistryOption func(*Registry)

// WithCapacity sets how many engines the registry keeps.
func WithCapacity(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.size = n
		}
	}
}

func NewRegistry(log logrus.FieldLogger, opts ...RegistryOption) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Registry{size: DefaultRegistrySize, log: log}
	for _, opt := range opts {
		opt(r)
	}
	// size is always positive here, NewLRU only fails otherwise
	r.engines, _ = simplelru.NewLRU[string, *Engine](r.size, nil)
	return r
}

// Engine returns the engine of collectionID, creating it over store the
// first time.
func (r *Registry) Engine(collectionID string, store Store) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines.Get(collectionID); ok {
		return e
	}
	if r.engines.Len() >= r.size {
		r.evictLocked()
	}
	e := NewEngine(store, r.log.WithField("collection_id", collectionID))
	r.engines.Add(collectionID, e)
	return e
}

// evictLocked drops the least recently used idle engine. When every engine
// is mid-gesture or committing the registry grows instead.
func (r *Registry) evictLocked() {
	for _, key := range r.engines.Keys() {
		e, ok := r.engines.Peek(key)
		if ok && !e.Busy() {
			r.engines.Remove(key)
			return
		}
	}
	r.size *= 2
	r.engines.Resize(r.size)
	r.log.WithField("size", r.size).Warn("all reorder engines busy, registry grown")
}

// Discard drops e when it is still the idle engine of collectionID. Used
// when the first load of a new engine fails.
func (r *Registry) Discard(collectionID string, e *Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.engines.Peek(collectionID); ok && cur == e && !e.Busy() {
		r.engines.Remove(collectionID)
	}
}

// Forget drops the engine of a deleted collection.
func (r *Registry) Forget(collectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines.Remove(collectionID)
}

// Len is the number of engines held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engines.Len()
}
