// Package snapshot persists detached live-session trees so a session can be
// resumed on another connection or another process.
package snapshot

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no snapshot exists for a session id.
var ErrNotFound = errors.New("snapshot: not found")

// Snapshot is the persisted form of a detached session: the serialized tree
// plus whatever session state the caller wants restored.
type Snapshot struct {
	// SessionID identifies the detached session.
	SessionID string `json:"session_id"`

	// Route is the session's current route, if any.
	Route string `json:"route,omitempty"`

	// HTML is the serialized output tree at detach time.
	HTML string `json:"html"`

	// State is arbitrary JSON-serializable session state.
	State map[string]any `json:"state,omitempty"`

	// SavedAt is when the snapshot was written.
	SavedAt time.Time `json:"saved_at"`
}

// Store persists session snapshots. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save writes the snapshot, replacing any previous one for the same
	// session id.
	Save(ctx context.Context, snap *Snapshot) error

	// Load returns the snapshot for a session id, or ErrNotFound.
	Load(ctx context.Context, sessionID string) (*Snapshot, error)

	// Delete removes the snapshot for a session id. Deleting a missing
	// snapshot is not an error.
	Delete(ctx context.Context, sessionID string) error
}
