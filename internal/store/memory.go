package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mobility-advisor/internal/model"
)

// MemoryStore keeps sessions in process memory. Suitable for the REPL and
// tests; state is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.SessionState, error) {
	s.mu.RLock()
	data, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var state model.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, eris.Wrap(err, "memory: unmarshal session")
	}
	return &state, nil
}

func (s *MemoryStore) Put(ctx context.Context, state *model.SessionState) error {
	if state == nil || state.ID == "" {
		return eris.New("memory: session id required")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "memory: marshal session")
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

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
