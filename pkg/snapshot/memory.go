package snapshot

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process memory. Snapshots older than the
// configured max age are treated as missing and reaped lazily.
type MemoryStore struct {
	mu     sync.RWMutex
	snaps  map[string]*Snapshot
	maxAge time.Duration
}

// NewMemoryStore creates an in-memory store. A zero maxAge keeps snapshots
// until deleted.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		snaps:  make(map[string]*Snapshot),
		maxAge: maxAge,
	}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	cp := *snap
	if cp.SavedAt.IsZero() {
		cp.SavedAt = time.Now()
	}
	s.mu.Lock()
	s.snaps[cp.SessionID] = &cp
	s.mu.Unlock()
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Snapshot, error) {
	s.mu.RLock()
	snap, ok := s.snaps[sessionID]
	s.mu.RUnlock()
	if !ok || s.expired(snap) {
		return nil, ErrNotFound
	}
	cp := *snap
	return &cp, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.snaps, sessionID)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored snapshots, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}

// Purge removes expired snapshots and returns how many were reaped.
func (s *MemoryStore) Purge() int {
	if s.maxAge <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var reaped int
	for id, snap := range s.snaps {
		if s.expired(snap) {
			delete(s.snaps, id)
			reaped++
		}
	}
	return reaped
}

func (s *MemoryStore) expired(snap *Snapshot) bool {
	return s.maxAge > 0 && time.Since(snap.SavedAt) > s.maxAge
}
