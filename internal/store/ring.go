// Package store keeps the bounded in-memory history of collected entries.
// Nothing is persisted; the ring exists so the web API and a freshly
// connected live-tail client can see recent traffic.
package store

import (
	"sync"

	"github.com/eapache/queue"

	"logsock/internal/shared/types"
)

// Ring is a fixed-capacity FIFO of the most recent entries.
type Ring struct {
	mu       sync.Mutex
	q        *queue.Queue
	capacity int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{
		q:        queue.New(),
		capacity: capacity,
	}
}

// Append adds an entry, evicting the oldest one when the ring is full.
func (r *Ring) Append(e *types.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.q.Length() >= r.capacity {
		r.q.Remove()
	}
	r.q.Add(e)
}

// Snapshot returns the current contents, oldest first.
func (r *Ring) Snapshot() []*types.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*types.Entry, 0, r.q.Length())
	for i := 0; i < r.q.Length(); i++ {
		out = append(out, r.q.Get(i).(*types.Entry))
	}
	return out
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.Length()
}

func (r *Ring) Capacity() int {
	return r.capacity
}
