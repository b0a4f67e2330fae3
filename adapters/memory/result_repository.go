package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"coexnet/domain/modules"
	"coexnet/domain/preservation"
	"coexnet/ports"
)

// ResultRepository implements ports.ResultRepository in process memory, for
// runs without a database.
type ResultRepository struct {
	mu          sync.RWMutex
	assignments map[uuid.UUID]*modules.Assignment
	records     map[uuid.UUID][]preservation.Record
	createdAt   map[uuid.UUID]time.Time
}

// NewResultRepository creates an empty repository.
func NewResultRepository() *ResultRepository {
	return &ResultRepository{
		assignments: make(map[uuid.UUID]*modules.Assignment),
		records:     make(map[uuid.UUID][]preservation.Record),
		createdAt:   make(map[uuid.UUID]time.Time),
	}
}

// SaveAssignment stores the reference module assignment for a run.
func (r *ResultRepository) SaveAssignment(ctx context.Context, runID uuid.UUID, a *modules.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments[runID] = a
	r.touch(runID)
	return nil
}

// SaveRecord checkpoints one preservation record.
func (r *ResultRepository) SaveRecord(ctx context.Context, runID uuid.UUID, rec preservation.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[runID] = append(r.records[runID], rec)
	r.touch(runID)
	return nil
}

// LoadTable returns all records for a run.
func (r *ResultRepository) LoadTable(ctx context.Context, runID uuid.UUID) (*preservation.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t := &preservation.Table{}
	for _, rec := range r.records[runID] {
		t.Add(rec)
	}
	return t, nil
}

// ListRuns returns known run IDs, newest first.
func (r *ResultRepository) ListRuns(ctx context.Context) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(r.createdAt))
	for id := range r.createdAt {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.createdAt[out[i]].After(r.createdAt[out[j]])
	})
	return out, nil
}

// Assignment returns the stored assignment, for test inspection.
func (r *ResultRepository) Assignment(runID uuid.UUID) *modules.Assignment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.assignments[runID]
}

func (r *ResultRepository) touch(runID uuid.UUID) {
	if _, ok := r.createdAt[runID]; !ok {
		r.createdAt[runID] = time.Now()
	}
}

var _ ports.ResultRepository = (*ResultRepository)(nil)
