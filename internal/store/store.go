// Package store persists conversation session state across turns.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mobility-advisor/internal/model"
)

// ErrNotFound is returned when a session id has no stored state.
var ErrNotFound = eris.New("store: session not found")

// SessionStore defines the persistence interface for session state.
type SessionStore interface {
	Get(ctx context.Context, id string) (*model.SessionState, error)
	Put(ctx context.Context, state *model.SessionState) error
	Delete(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
