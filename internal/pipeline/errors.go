package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFatal is matched by every error that aborts a run before any output
// is written.
var ErrFatal = errors.New("fatal validation error")

// EmptySourceError reports a dataset with no rows or no columns.
type EmptySourceError struct {
	Rows    int
	Columns int
}

func (e *EmptySourceError) Error() string {
	return fmt.Sprintf("empty source: %d rows, %d columns", e.Rows, e.Columns)
}

func (e *EmptySourceError) Is(target error) bool { return target == ErrFatal }

// MissingColumnsError names every schema field absent from the input, in
// schema order.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing columns: " + strings.Join(e.Columns, ", ")
}

func (e *MissingColumnsError) Is(target error) bool { return target == ErrFatal }

// DuplicateKeyError lists key values that occur more than once, in order of
// first occurrence.
type DuplicateKeyError struct {
	Key string
	IDs []string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s values: %s", e.Key, strings.Join(e.IDs, ", "))
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrFatal }

// TotalRejectionError reports a run in which no row was accepted.
type TotalRejectionError struct {
	Rejected int
}

func (e *TotalRejectionError) Error() string {
	return fmt.Sprintf("total rejection: all %d rejected records, nothing accepted", e.Rejected)
}

func (e *TotalRejectionError) Is(target error) bool { return target == ErrFatal }
