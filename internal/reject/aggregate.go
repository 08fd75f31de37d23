// Package reject folds the per-rule rejections of a run into one
// RejectionEntry per logical record.
//
// Records are grouped by their full pre-cast field tuple (customer_id,
// name, email, country), with null and "" kept distinct. A record without a
// usable id can therefore still be grouped. Reasons are kept in first-seen
// order and de-duplicated; every entry of one Fold shares one timestamp.
package reject

import (
	"database/sql"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"custdq/internal/transformer"
	"custdq/pkg/records"
)

// Aggregator folds rejections. Now defaults to time.Now and Logger to a
// no-op logger.
type Aggregator struct {
	Now    func() time.Time
	Logger *zap.Logger
}

type group struct {
	entry records.RejectionEntry
	seen  map[string]struct{}
	lines map[int]struct{}
}

// Fold groups rejections into entries ordered by the first input line of
// each group. The input is not modified.
func (a Aggregator) Fold(rejections []transformer.Rejection) []records.RejectionEntry {
	if len(rejections) == 0 {
		return nil
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stamp := now()

	groups := make(map[GroupKey]*group)
	var order []*group
	for _, r := range rejections {
		k := Key(r.Row)
		g, ok := groups[k]
		if !ok {
			g = &group{
				entry: records.RejectionEntry{
					CustomerID: reportID(r.Row),
					Name:       r.Row.Name,
					Email:      r.Row.Email,
					Country:    r.Row.Country,
					Timestamp:  stamp,
				},
				seen:  map[string]struct{}{},
				lines: map[int]struct{}{},
			}
			groups[k] = g
			order = append(order, g)
		}
		if _, dup := g.seen[r.Reason]; !dup {
			g.seen[r.Reason] = struct{}{}
			g.entry.Reasons = append(g.entry.Reasons, r.Reason)
		}
		if _, dup := g.lines[r.Row.Line]; !dup {
			g.lines[r.Row.Line] = struct{}{}
			g.entry.Lines = append(g.entry.Lines, r.Row.Line)
		}
	}

	out := make([]records.RejectionEntry, 0, len(order))
	for _, g := range order {
		e := g.entry
		sort.Ints(e.Lines)
		if len(e.Lines) > 1 {
			// Identical tuples on different lines are most likely distinct
			// customers; they still share one entry.
			logger.Warn("rejection entry merges several input rows",
				zap.Ints("lines", e.Lines),
				zap.String("customer_id", e.CustomerID.String))
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Lines[0] < out[j].Lines[0] })
	return out
}

// GroupKey is the pre-cast field tuple rows are grouped by. It is compared
// field by field, so null and "" stay distinct and no value can alias
// another tuple.
type GroupKey struct {
	ID, Name, Email, Country sql.NullString
}

// Key returns the grouping key of a row.
func Key(c records.Customer) GroupKey {
	return GroupKey{ID: c.RawID, Name: c.Name, Email: c.Email, Country: c.Country}
}

// reportID is the customer_id shown in the report: the parsed integer when
// the cast succeeded, the trimmed raw text otherwise.
func reportID(c records.Customer) sql.NullString {
	if c.ID.Valid {
		return sql.NullString{String: strconv.FormatInt(c.ID.Int64, 10), Valid: true}
	}
	return c.RawID
}
