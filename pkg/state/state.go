package state

import (
	"context"
)

// StateManager provides shared access to the published view of the runtime.
// Implementations must be thread-safe.
type StateManager interface {
	// Get returns a copy of the current view.
	Get(ctx context.Context) (*View, error)
	// Set sets the current view.
	Set(ctx context.Context, view *View) error
}
