package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"custdq/pkg/records"
)

// Result is the outcome of one successful run, ready for the output
// collaborators.
type Result struct {
	RunID     uuid.UUID
	StartedAt time.Time

	// Input is the number of rows read.
	Input int

	Accepted []records.Customer
	Rejected []records.RejectionEntry
}

// AcceptedTable lays out the accepted rows.
func (r *Result) AcceptedTable() records.Table { return records.AcceptedTable(r.Accepted) }

// RejectedTable lays out the rejection report.
func (r *Result) RejectedTable() records.Table { return records.RejectedTable(r.Rejected) }

// Assemble is the terminal check of a run. It fails with
// *TotalRejectionError when rows were rejected and none accepted, and with
// an internal error when some input line is not accounted for exactly once.
func Assemble(total int, accepted []records.Customer, rejected []records.RejectionEntry) (*Result, error) {
	if len(accepted) == 0 && len(rejected) > 0 {
		return nil, &TotalRejectionError{Rejected: len(rejected)}
	}

	seen := make([]int, total+1)
	mark := func(line int) error {
		if line < 1 || line > total {
			return fmt.Errorf("assemble: line %d outside input of %d rows", line, total)
		}
		seen[line]++
		return nil
	}
	for _, c := range accepted {
		if err := mark(c.Line); err != nil {
			return nil, err
		}
	}
	for _, e := range rejected {
		for _, l := range e.Lines {
			if err := mark(l); err != nil {
				return nil, err
			}
		}
	}
	for line := 1; line <= total; line++ {
		if seen[line] != 1 {
			return nil, fmt.Errorf("assemble: input line %d accounted for %d times", line, seen[line])
		}
	}
	return &Result{Input: total, Accepted: accepted, Rejected: rejected}, nil
}
