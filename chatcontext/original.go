package chatcontext

import (
	"sync"

	safe "github.com/eminarican/safetypes"
)

// DefaultCapacity bounds the side table when no explicit capacity is given.
const DefaultCapacity = 100

// OriginalStore maps message ids to the original, pre-encoding user input.
// It exists because the sentinel protocol is ambiguous when user text
// itself contains the marker strings; a hit here bypasses re-parsing.
// Entries are created for user turns only, at send time and at edit-save
// time.
type OriginalStore struct {
	mu       sync.Mutex
	entries  map[string]string
	order    []string // insertion order, oldest first
	capacity int
}

func NewOriginalStore(capacity int) *OriginalStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &OriginalStore{
		entries:  make(map[string]string),
		capacity: capacity,
	}
}

// Set records the original text for a message id. Re-setting an existing
// id updates the value in place and keeps its insertion position.
func (o *OriginalStore) Set(id, original string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.entries[id]; !ok {
		o.order = append(o.order, id)
	}
	o.entries[id] = original
	o.evictLocked()
}

// Get returns the original text for id, if known.
func (o *OriginalStore) Get(id string) safe.Option[string] {
	o.mu.Lock()
	defer o.mu.Unlock()

	if v, ok := o.entries[id]; ok {
		return safe.Some(v)
	}

	return safe.None[string]()
}

func (o *OriginalStore) Delete(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.removeLocked(id)
}

// Rename carries an entry from a temporary client id to the id confirmed
// by the storage collaborator.
func (o *OriginalStore) Rename(oldID, newID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	v, ok := o.entries[oldID]
	if !ok || oldID == newID {
		return
	}

	o.removeLocked(oldID)
	if _, ok := o.entries[newID]; !ok {
		o.order = append(o.order, newID)
	}
	o.entries[newID] = v
	o.evictLocked()
}

// Prune drops entries whose id is no longer live, then enforces capacity.
// Liveness is judged by the caller; eviction stays insertion-ordered.
func (o *OriginalStore) Prune(live func(id string) bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	kept := make([]string, 0, len(o.order))
	for _, id := range o.order {
		if live != nil && !live(id) {
			delete(o.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	o.order = kept
	o.evictLocked()
}

func (o *OriginalStore) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.entries)
}

func (o *OriginalStore) evictLocked() {
	for len(o.order) > o.capacity {
		delete(o.entries, o.order[0])
		o.order = o.order[1:]
	}
}

func (o *OriginalStore) removeLocked(id string) {
	if _, ok := o.entries[id]; !ok {
		return
	}

	delete(o.entries, id)
	for i, v := range o.order {
		if v == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}
