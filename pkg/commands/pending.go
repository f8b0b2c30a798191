package commands

import (
	"sync"
	"time"
)

// PendingStore holds short-lived interaction state (a previewed campaign, a
// member's removal picker) keyed by an opaque id. Entries expire after the
// configured TTL; expired entries are purged on write and rejected on read.
type PendingStore struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]pendingEntry
}

type pendingEntry struct {
	value    any
	deadline time.Time
}

func NewPendingStore(ttl time.Duration) *PendingStore {
	return &PendingStore{
		ttl:     ttl,
		entries: make(map[string]pendingEntry),
	}
}

func (p *PendingStore) Put(key string, value any) {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, e := range p.entries {
		if now.After(e.deadline) {
			delete(p.entries, k)
		}
	}
	p.entries[key] = pendingEntry{value: value, deadline: now.Add(p.ttl)}
}

func (p *PendingStore) Get(key string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if !ok || time.Now().After(e.deadline) {
		return nil, false
	}
	return e.value, true
}

func (p *PendingStore) Delete(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, key)
}
