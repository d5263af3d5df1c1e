// Package session provides conversation session stores: an in-process map and a Redis backend.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/outing/internal/domain"
	domsession "github.com/kailas-cloud/outing/internal/domain/session"
)

// MemoryStore keeps sessions in a mutex-guarded map. Sessions are cloned on the way in and out.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*domsession.Session
	maxSessions int
	ttl         time.Duration
	now         func() time.Time
}

// NewMemory creates an in-memory store. maxSessions <= 0 disables eviction, ttl <= 0 disables expiry.
func NewMemory(maxSessions int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]*domsession.Session),
		maxSessions: maxSessions,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Get returns a copy of the session or domain.ErrSessionNotFound.
func (m *MemoryStore) Get(_ context.Context, id string) (*domsession.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || m.expired(s) {
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// Save stores a copy of the session and evicts the oldest sessions above the ceiling.
func (m *MemoryStore) Save(_ context.Context, s *domsession.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = s.Clone()
	m.evictLocked(s.ID)
	return nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Count returns the number of live sessions.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, s := range m.sessions {
		if !m.expired(s) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) expired(s *domsession.Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}

// evictLocked drops expired sessions, then the least recently updated ones above maxSessions.
// keep is never evicted.
func (m *MemoryStore) evictLocked(keep string) {
	for id, s := range m.sessions {
		if id != keep && m.expired(s) {
			delete(m.sessions, id)
		}
	}
	if m.maxSessions <= 0 || len(m.sessions) <= m.maxSessions {
		return
	}

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		if id != keep {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := m.sessions[ids[i]], m.sessions[ids[j]]
		if a.UpdatedAt.Equal(b.UpdatedAt) {
			return ids[i] < ids[j]
		}
		return a.UpdatedAt.Before(b.UpdatedAt)
	})

	excess := len(m.sessions) - m.maxSessions
	for _, id := range ids[:excess] {
		delete(m.sessions, id)
	}
}
