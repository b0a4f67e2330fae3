package ports

import (
	"context"

	"github.com/google/uuid"

	"coexnet/domain/modules"
	"coexnet/domain/preservation"
)

// ResultRepository persists module assignments and preservation records at
// phase boundaries. Each record save is a checkpoint: a failure partway
// through a module list leaves completed modules intact.
type ResultRepository interface {
	// SaveAssignment stores the reference module assignment for a run.
	SaveAssignment(ctx context.Context, runID uuid.UUID, a *modules.Assignment) error

	// SaveRecord checkpoints one per-module-per-comparison record.
	SaveRecord(ctx context.Context, runID uuid.UUID, r preservation.Record) error

	// LoadTable returns all records for a run.
	LoadTable(ctx context.Context, runID uuid.UUID) (*preservation.Table, error)

	// ListRuns returns known run IDs, newest first.
	ListRuns(ctx context.Context) ([]uuid.UUID, error)
}
