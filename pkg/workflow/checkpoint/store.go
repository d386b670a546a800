// Package checkpoint provides persistent run snapshots for crash recovery.
package checkpoint

import (
	"errors"
	"time"
)

// Store persists run snapshots.
// Implementations must be safe for concurrent use: multiple pipeline runs
// for different cases may checkpoint at the same time.
type Store interface {
	// Save stores a snapshot for a run at a specific node.
	// Overwrites if a snapshot for (runID, nodeID) already exists.
	Save(runID, nodeID string, data []byte) error

	// Load retrieves a snapshot.
	// Returns ErrNotFound if it doesn't exist.
	Load(runID, nodeID string) ([]byte, error)

	// List returns all snapshots for a run, ordered by sequence.
	// Returns an empty slice (not an error) if the run has none.
	List(runID string) ([]Info, error)

	// Delete removes a specific snapshot.
	// Returns nil if it doesn't exist.
	Delete(runID, nodeID string) error

	// DeleteRun removes all snapshots for a run.
	// Returns nil if the run has none.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides snapshot metadata without loading the full state.
type Info struct {
	RunID     string
	NodeID    string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates a snapshot doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
