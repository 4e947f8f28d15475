package session

import (
	"context"
	"sync"
	"time"
)

// memoryStore keeps sessions in a map; it does not outlive the process
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionData
	now      func() time.Time
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{sessions: make(map[string]*SessionData), now: now}
}

func (s *memoryStore) Create(ctx context.Context, data *SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1
	s.sessions[data.ID] = data.clone()
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (*SessionData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return data.clone(), nil
}

func (s *memoryStore) Update(ctx context.Context, data *SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[data.ID]
	if !ok {
		return ErrSessionNotFound
	}
	if stored.Version != data.Version {
		return ErrVersionConflict
	}
	data.Version++
	data.UpdatedAt = s.now()
	s.sessions[data.ID] = data.clone()
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*SessionData)
	return nil
}
