package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound    = errors.New("student not found")
	ErrDuplicateID = errors.New("duplicate student id")
	ErrTooManyRows = errors.New("roster exceeds row limit")
)
