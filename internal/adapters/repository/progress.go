package repository

import (
	"context"
	"sync"
)

// InMemoryProgress implements ProgressStore. Entries are created on first
// increment and live for the lifetime of the process.
type InMemoryProgress struct {
	mu        sync.RWMutex
	completed map[int64]int
}

// NewInMemoryProgress creates an empty progress store.
func NewInMemoryProgress() *InMemoryProgress {
	return &InMemoryProgress{completed: make(map[int64]int)}
}

// Increment implements ProgressStore.
func (p *InMemoryProgress) Increment(_ context.Context, id int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed[id]++
	return p.completed[id]
}

// Completed implements ProgressStore.
func (p *InMemoryProgress) Completed(_ context.Context, id int64) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.completed[id]
}

// Count implements ProgressStore.
func (p *InMemoryProgress) Count(_ context.Context) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.completed)
}
