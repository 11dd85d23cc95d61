// Package memory provides the in-memory StateStore, mainly for tests and
// single-process runs.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]pipeline.State
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]pipeline.State),
	}
}

// Save persists the state in memory. The references history is copied so
// the stored value cannot alias the caller's slice.
func (s *Store) Save(ctx context.Context, pipelineID string, st pipeline.State) error {
	copied := st
	copied.References = append([]any(nil), st.References...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[pipelineID] = copied
	return nil
}

// Load retrieves the state from memory.
func (s *Store) Load(ctx context.Context, pipelineID string) (pipeline.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.data[pipelineID]
	if !ok {
		return pipeline.State{}, ports.ErrStateNotFound
	}

	ret := st
	ret.References = append([]any(nil), st.References...)
	return ret, nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, pipelineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, pipelineID)
	return nil
}

// List returns the pipeline IDs with persisted state.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
