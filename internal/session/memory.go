package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]Session
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]Session)}
}

func (m *MemoryStore) Create(_ context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	s := Session{ID: uuid.NewString(), UserID: userID, CreatedAt: now, ExpiresAt: now.Add(m.ttl)}
	m.sessions[s.ID] = s
	m.sweepLocked(now)
	return &s, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, id)
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) Destroy(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// sweepLocked drops expired sessions.
func (m *MemoryStore) sweepLocked(now time.Time) {
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
}
