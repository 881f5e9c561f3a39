package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrMissingID is returned when a store is asked for an empty session id.
var ErrMissingID = errors.New("session: id required")

// Store persists State keyed by an opaque session id.
type Store interface {
	// Load returns the stored state, creating a fresh one when absent.
	Load(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, state *State) error
}

// MemoryStore keeps sessions in process memory. Useful for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*State)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*State, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	m.mu.RLock()
	state, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return New(id), nil
	}
	return state.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, state *State) error {
	if state == nil || state.ID == "" {
		return ErrMissingID
	}
	state.UpdatedAt = time.Now().UTC()
	m.mu.Lock()
	m.sessions[state.ID] = state.Clone()
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
