package pickupstore

import (
	"context"
	"sync"
	"time"
)

type memorySession struct {
	state     map[string]bool
	touchedAt time.Time
}

// MemoryStore holds sessions in process memory
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		now:      time.Now,
	}
}

// Reset replaces the session under key with one where every student is not picked up
func (s *MemoryStore) Reset(ctx context.Context, key string, studentIDs []string) error {
	state := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		state[id] = false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = &memorySession{state: state, touchedAt: s.now()}
	return nil
}

// Toggle flips the student's flag and returns the new value
func (s *MemoryStore) Toggle(ctx context.Context, key, studentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return false, ErrNoSession
	}
	cur, ok := sess.state[studentID]
	if !ok {
		return false, ErrUnknownStudent
	}
	sess.state[studentID] = !cur
	sess.touchedAt = s.now()
	return !cur, nil
}

// State returns a copy of the session's flags and whether the session exists
func (s *MemoryStore) State(ctx context.Context, key string) (map[string]bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return nil, false, nil
	}
	out := make(map[string]bool, len(sess.state))
	for id, v := range sess.state {
		out[id] = v
	}
	return out, true, nil
}

// PruneIdle drops sessions untouched for longer than maxIdle
func (s *MemoryStore) PruneIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, sess := range s.sessions {
		if sess.touchedAt.Before(cutoff) {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed, nil
}
