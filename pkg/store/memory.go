package store

import (
	"context"
	"maps"
	"sync"

	"github.com/bitdegree/heirloom/pkg/tree"
)

// Memory is an in-process store for tests and scratch sessions.
// It is safe for concurrent use and supports change notification.
type Memory struct {
	mu          sync.Mutex
	snap        *tree.Snapshot
	assignments map[int]string
	watchers    []chan struct{}
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{assignments: make(map[int]string)}
}

// Name identifies the backend.
func (m *Memory) Name() string { return "memory" }

// Load returns the stored snapshot, or ErrNotFound before the first save.
func (m *Memory) Load(ctx context.Context) (tree.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return tree.Snapshot{}, ErrNotFound
	}
	return *m.snap, nil
}

// Save replaces the stored snapshot and notifies watchers.
func (m *Memory) Save(ctx context.Context, snap tree.Snapshot) error {
	m.mu.Lock()
	m.snap = &snap
	watchers := make([]chan struct{}, len(m.watchers))
	copy(watchers, m.watchers)
	m.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- struct{}{}:
		default: // watcher is behind, it will re-read on the pending signal
		}
	}
	return nil
}

// LoadAssignments returns a copy of the stored palette assignments.
func (m *Memory) LoadAssignments(ctx context.Context) (map[int]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.assignments), nil
}

// StoreAssignments replaces the stored palette assignments.
func (m *Memory) StoreAssignments(ctx context.Context, assignments map[int]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments = maps.Clone(assignments)
	return nil
}

// Watch returns a channel signaled on every Save until ctx is done.
func (m *Memory) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	m.mu.Lock()
	m.watchers = append(m.watchers, ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		for i, w := range m.watchers {
			if w == ch {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
	}()
	return ch, nil
}

// Close does nothing for the in-memory store.
func (m *Memory) Close() error { return nil }

// Ensure Memory implements Store.
var _ Store = (*Memory)(nil)
