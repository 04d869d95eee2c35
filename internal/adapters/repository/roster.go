package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/rebound/internal/domain/model"
)

const defaultMaxRows = 5_000

// InMemoryRoster implements RosterStore. The slice and index are replaced
// together under the write lock and never mutated in place afterwards.
type InMemoryRoster struct {
	mu       sync.RWMutex
	students []model.Student
	byID     map[int64]int
	snapshot Snapshot

	maxRows int
	now     func() time.Time
}

// NewInMemoryRoster creates an empty roster.
func NewInMemoryRoster(opts ...Option) *InMemoryRoster {
	r := &InMemoryRoster{
		byID:    make(map[int64]int),
		maxRows: defaultMaxRows,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Replace implements RosterStore.
func (r *InMemoryRoster) Replace(_ context.Context, batchID, source string, students []model.Student) (Snapshot, error) {
	if len(students) > r.maxRows {
		return Snapshot{}, fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, len(students), r.maxRows)
	}

	rows := make([]model.Student, len(students))
	copy(rows, students)
	index := make(map[int64]int, len(rows))
	for i, s := range rows {
		if prev, dup := index[s.ID]; dup {
			return Snapshot{}, fmt.Errorf("%w: %d (rows %d and %d)", ErrDuplicateID, s.ID, prev+1, i+1)
		}
		index[s.ID] = i
	}

	snap := Snapshot{
		BatchID:  batchID,
		Source:   source,
		Rows:     len(rows),
		LoadedAt: r.now().UTC(),
	}

	r.mu.Lock()
	r.students = rows
	r.byID = index
	r.snapshot = snap
	r.mu.Unlock()

	return snap, nil
}

// Get implements RosterStore.
func (r *InMemoryRoster) Get(_ context.Context, id int64) (model.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[id]
	if !ok {
		return model.Student{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return r.students[i], nil
}

// List implements RosterStore.
func (r *InMemoryRoster) List(_ context.Context) []model.Student {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Student, len(r.students))
	copy(out, r.students)
	return out
}

// Snapshot implements RosterStore.
func (r *InMemoryRoster) Snapshot(_ context.Context) Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}
