package repository

import "time"

// Option applies a configuration option to the InMemoryRoster.
type Option func(*InMemoryRoster)

// WithMaxRows caps the number of rows Replace accepts.
func WithMaxRows(n int) Option {
	return func(r *InMemoryRoster) {
		if n > 0 {
			r.maxRows = n
		}
	}
}

// WithClock sets the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(r *InMemoryRoster) {
		if now != nil {
			r.now = now
		}
	}
}
