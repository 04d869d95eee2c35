package table

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for table errors.
var (
	ErrInvalidTable = errors.New("invalid table")
	ErrEmptyTable   = errors.New("table has no header")
	ErrNoRows       = errors.New("table has no data rows")
	ErrTooManyRows  = errors.New("table exceeds row limit")
)

// maxReportedErrors bounds how many cell errors one Read collects.
const maxReportedErrors = 25

// ParseError locates one rejected cell. Line is 1-based and counts the header.
type ParseError struct {
	Line   int    `json:"line"`
	Column string `json:"column"`
	Reason string `json:"reason"`
}

func (e ParseError) String() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d, column %s: %s", e.Line, e.Column, e.Reason)
}

// Error aggregates the cell errors of a rejected table.
type Error struct {
	Errors    []ParseError
	Truncated bool
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Errors))
	for i, pe := range e.Errors {
		parts[i] = pe.String()
	}
	msg := ErrInvalidTable.Error() + ": " + strings.Join(parts, "; ")
	if e.Truncated {
		msg += "; further errors omitted"
	}
	return msg
}

func (e *Error) Unwrap() error { return ErrInvalidTable }

func (e *Error) add(pe ParseError) bool {
	if len(e.Errors) >= maxReportedErrors {
		e.Truncated = true
		return false
	}
	e.Errors = append(e.Errors, pe)
	return true
}
