// Package repository holds the in-memory roster and progress state.
package repository

import (
	"context"
	"time"

	"github.com/okian/rebound/internal/domain/model"
)

// Snapshot describes the roster currently held by a RosterStore.
type Snapshot struct {
	BatchID  string    `json:"batch_id"`
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// RosterStore holds the most recently scored table.
type RosterStore interface {
	// Replace swaps the whole roster. On error the previous roster is kept.
	// Returns ErrDuplicateID if two rows share an id and ErrTooManyRows if
	// the configured cap is exceeded.
	Replace(ctx context.Context, batchID, source string, students []model.Student) (Snapshot, error)

	// Get returns the row for id, or ErrNotFound.
	Get(ctx context.Context, id int64) (model.Student, error)

	// List returns a copy of the roster in load order.
	List(ctx context.Context) []model.Student

	// Snapshot describes the current roster.
	Snapshot(ctx context.Context) Snapshot
}

// ProgressStore counts completed remediation modules per student id.
type ProgressStore interface {
	// Increment adds one completed module for id and returns the new count.
	Increment(ctx context.Context, id int64) int

	// Completed returns the count for id; absent ids report 0.
	Completed(ctx context.Context, id int64) int

	// Count returns the number of ids with recorded progress.
	Count(ctx context.Context) int
}
