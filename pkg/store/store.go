// Package store persists genealogy trees and palette assignments.
//
// Backends:
//   - memory: in-process storage for tests and scratch sessions
//   - sqlite: local single-user storage (the default)
//   - mongo: remote storage for shared deployments
//
// Each Save call is atomic; there is no transactional discipline beyond
// that. The engine treats writes as fire-and-forget: a failed save is
// logged by the caller and in-memory state is not rolled back.
//
// Backends that support it also expose change notification, so an
// out-of-process writer (or another session) can trigger a re-read.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/bitdegree/heirloom/pkg/observability"
	"github.com/bitdegree/heirloom/pkg/tree"
)

var (
	// ErrNotFound is returned by Load when no tree has been saved yet.
	ErrNotFound = errors.New("not found")

	// ErrWatchUnsupported is returned by Watch on backends without change
	// notification.
	ErrWatchUnsupported = errors.New("watch not supported by this backend")
)

// Store is the persistence collaborator for trees and palette assignments.
type Store interface {
	// Name identifies the backend ("memory", "sqlite", "mongo") in logs
	// and observability events.
	Name() string

	// Load returns the stored tree snapshot. Returns ErrNotFound when
	// nothing has been saved yet.
	Load(ctx context.Context) (tree.Snapshot, error)

	// Save replaces the stored tree snapshot. Atomic per call.
	Save(ctx context.Context, snap tree.Snapshot) error

	// LoadAssignments returns the stored generation→color-name map, or an
	// empty map when none are stored. Satisfies palette.Backend.
	LoadAssignments(ctx context.Context) (map[int]string, error)

	// StoreAssignments replaces the stored generation→color-name map.
	StoreAssignments(ctx context.Context, assignments map[int]string) error

	// Watch returns a channel that receives a signal whenever the stored
	// tree changes, until ctx is done. Returns ErrWatchUnsupported when the
	// backend cannot observe changes.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases backend resources.
	Close() error
}

// Session binds a live tree to a store for one editing session. It is the
// Saver handed to the interaction controller: Save snapshots the current
// tree and pushes it to the backend.
type Session struct {
	Tree  *tree.Tree
	store Store
}

// Open loads the stored tree (or starts an empty one when the store holds
// nothing) and returns a session over it.
func Open(ctx context.Context, s Store) (*Session, error) {
	snap, err := s.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		observability.Store().OnLoad(ctx, s.Name(), 0, nil)
		return &Session{Tree: tree.New(), store: s}, nil
	}
	if err != nil {
		observability.Store().OnLoad(ctx, s.Name(), 0, err)
		return nil, err
	}
	t, err := tree.Restore(snap)
	if err != nil {
		return nil, err
	}
	observability.Store().OnLoad(ctx, s.Name(), t.Len(), nil)
	return &Session{Tree: t, store: s}, nil
}

// Save pushes the current tree to the backend.
func (s *Session) Save(ctx context.Context) error {
	start := time.Now()
	err := s.store.Save(ctx, tree.Take(s.Tree))
	observability.Store().OnSave(ctx, s.store.Name(), time.Since(start), err)
	return err
}

// Reload replaces the session tree with the stored state. Used after a
// change notification from another writer. Keeps the current tree when the
// store holds nothing.
func (s *Session) Reload(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	t, err := tree.Restore(snap)
	if err != nil {
		return err
	}
	s.Tree = t
	return nil
}
