// Package transformer evaluates row rules over normalized customers and
// partitions them into accepted rows and labeled rejections.
package transformer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"custdq/pkg/records"
)

// Rejection pairs a failing row with the reason label of the rule it failed.
type Rejection struct {
	Row    records.Customer
	Reason string
}

// Rule is one validation predicate. Apply must be pure: it returns the rows
// that satisfy the rule and, for every other row, a Rejection carrying the
// rule's label. Both slices keep input order.
type Rule interface {
	Name() string
	Apply(rows []records.Customer) (pass []records.Customer, reject []Rejection)
}

// Outcome is the result of evaluating every rule over one batch.
type Outcome struct {
	// Accepted are the rows that passed every rule, in input order.
	Accepted []records.Customer

	// Rejections concatenates each rule's reject-set in rule order.
	Rejections []Rejection
}

// Validator runs Rules over a batch. Every rule sees the full batch, so a
// row failing several rules yields one Rejection per rule.
type Validator struct {
	Rules []Rule

	// Parallel evaluates rules concurrently. Results are slotted by rule
	// index, so the Outcome is identical to sequential evaluation.
	Parallel bool
}

// Run evaluates the rules. It only fails when ctx is canceled.
func (v Validator) Run(ctx context.Context, rows []records.Customer) (Outcome, error) {
	passed := make([][]records.Customer, len(v.Rules))
	rejected := make([][]Rejection, len(v.Rules))

	if v.Parallel && len(v.Rules) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for i, r := range v.Rules {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				passed[i], rejected[i] = r.Apply(rows)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Outcome{}, err
		}
	} else {
		for i, r := range v.Rules {
			if err := ctx.Err(); err != nil {
				return Outcome{}, err
			}
			passed[i], rejected[i] = r.Apply(rows)
		}
	}

	// A row is accepted when every rule passed it.
	hits := make(map[int]int, len(rows))
	for _, p := range passed {
		for _, c := range p {
			hits[c.Line]++
		}
	}
	var out Outcome
	for _, c := range rows {
		if hits[c.Line] == len(v.Rules) {
			out.Accepted = append(out.Accepted, c)
		}
	}
	for _, rj := range rejected {
		out.Rejections = append(out.Rejections, rj...)
	}
	return out, nil
}
