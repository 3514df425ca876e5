package tasks

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/desertthunder/twx/internal/models"
)

// InFlightKey identifies a favorite operation by account and status.
//
// It is a 64-bit hash; collisions between distinct pairs are tolerated.
type InFlightKey uint64

// KeyFor computes the in-flight key for (account, statusID).
func KeyFor(account models.AccountKey, statusID string) InFlightKey {
	d := xxhash.New()
	d.WriteString(account.String())
	d.WriteString("\x00")
	d.WriteString(statusID)
	return InFlightKey(d.Sum64())
}

// Registry is the set of favorite operations currently in flight.
//
// It is a set: a key added twice is removed by the first Remove.
type Registry struct {
	mu   sync.Mutex
	keys map[InFlightKey]struct{}
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{keys: make(map[InFlightKey]struct{})}
}

// Add inserts key if absent and reports whether it was inserted.
func (r *Registry) Add(key InFlightKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[key]; ok {
		return false
	}
	r.keys[key] = struct{}{}
	return true
}

// Remove deletes key. Removing an absent key is a no-op.
func (r *Registry) Remove(key InFlightKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, key)
}

// Contains reports whether key is in flight.
func (r *Registry) Contains(key InFlightKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.keys[key]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
