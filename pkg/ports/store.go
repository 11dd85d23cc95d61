package ports

import (
	"context"
	"errors"

	"github.com/aretw0/sluice/pkg/pipeline"
)

// ErrStateNotFound is returned when a pipeline ID has no persisted state.
var ErrStateNotFound = errors.New("pipeline state not found")

// StateStore persists the final state of pipeline executions, including the
// references history, so runs can be audited or replayed later.
type StateStore interface {
	// Save persists the state for a given pipeline ID.
	Save(ctx context.Context, pipelineID string, st pipeline.State) error

	// Load retrieves the state for a given pipeline ID.
	// Returns ErrStateNotFound if nothing was saved under that ID.
	Load(ctx context.Context, pipelineID string) (pipeline.State, error)

	// Delete removes the state for a given pipeline ID.
	Delete(ctx context.Context, pipelineID string) error

	// List returns the pipeline IDs with persisted state.
	List(ctx context.Context) ([]string, error)
}
