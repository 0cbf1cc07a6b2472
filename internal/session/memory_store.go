package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process. Used when no redis is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
		now:      time.Now,
	}
}

// Get returns a copy of the stored state so callers can't mutate it in place.
func (s *MemoryStore) Get(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	s.mu.RLock()
	data, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return New(id), nil
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("session: unmarshal state: %w", err)
	}
	return &state, nil
}

func (s *MemoryStore) Save(ctx context.Context, state *State) error {
	if state == nil || state.ID == "" {
		return ErrMissingID
	}
	state.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: marshal state: %w", err)
	}
	s.mu.Lock()
	s.sessions[state.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
