// Package builtin contains the customer normalizer and the row rules.
package builtin

import (
	"custdq/internal/transformer"
	"custdq/pkg/records"
)

// Require rejects rows whose Field is null or empty.
type Require struct {
	Field string
}

func (r Require) Name() string { return "require:" + r.Field }

// Reason is the label attached to rejected rows.
func (r Require) Reason() string { return "Null required field: " + r.Field }

func (r Require) Apply(in []records.Customer) ([]records.Customer, []transformer.Rejection) {
	return partition(in, r.Reason(), func(c records.Customer) bool {
		v, ok := c.Text(r.Field)
		return ok && !records.Missing(v)
	})
}

// partition splits rows by keep, labelling the rest with reason.
func partition(in []records.Customer, reason string, keep func(records.Customer) bool) ([]records.Customer, []transformer.Rejection) {
	pass := make([]records.Customer, 0, len(in))
	var reject []transformer.Rejection
	for _, c := range in {
		if keep(c) {
			pass = append(pass, c)
			continue
		}
		reject = append(reject, transformer.Rejection{Row: c, Reason: reason})
	}
	return pass, reject
}
