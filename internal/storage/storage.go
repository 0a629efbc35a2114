// Package storage persists the store's state. It is the Storage collaborator
// of the state store: the store never calls it directly - the application
// layer loads a snapshot at startup and saves one after each settled
// mutation.
package storage

import (
	"context"
	"errors"

	"github.com/dyluth/drey/pkg/store"
)

// ErrNotFound indicates no state has been persisted yet. Callers start from
// an empty store in that case.
var ErrNotFound = errors.New("no stored state found")

// Snapshot is the persisted shape: the board collection, the selection and
// the filter. The derived task view is never stored; the store recomputes it.
type Snapshot struct {
	Boards         []store.Board `json:"boards"`
	CurrentBoardID string        `json:"currentBoardId"`
	Filter         string        `json:"filter,omitempty"`
}

// Adapter is a pluggable persistence backend.
type Adapter interface {
	// Load retrieves the persisted snapshot, or ErrNotFound.
	Load(ctx context.Context) (*Snapshot, error)

	// Save persists the snapshot, replacing any previous one.
	Save(ctx context.Context, snap *Snapshot) error

	// Close releases backend resources. Implements io.Closer.
	Close() error
}

// IsNotFound returns true if the error means no persisted state exists.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
