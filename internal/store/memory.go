package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps runs in a map. History is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]Run)}
}

func (m *MemoryStore) Create(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	m.runs[run.ID] = *run
	return nil
}

func (m *MemoryStore) Update(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[run.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	m.runs[run.ID] = *run
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return &run, nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	runs := make([]Run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	m.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
