package pipeline

import (
	"strconv"

	"custdq/internal/schema"
	"custdq/internal/transformer/builtin"
	"custdq/pkg/records"
)

// Preflight checks the raw dataset for structural defects: emptiness,
// missing schema columns and duplicate key values. Any defect is fatal.
func Preflight(s schema.Schema, ds records.Dataset) error {
	if ds.Empty() {
		return &EmptySourceError{Rows: len(ds.Rows), Columns: len(ds.Columns)}
	}

	var missing []string
	for _, f := range s.FieldNames() {
		if !ds.HasColumn(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}

	if dups := duplicateKeys(ds, s.Key); len(dups) > 0 {
		return &DuplicateKeyError{Key: s.Key, IDs: dups}
	}
	return nil
}

// duplicateKeys returns the canonical key values seen more than once.
// Integral values compare by number, so 7, "7", " 7 " and 7.0 collide.
// Null and empty keys are left to the id rule.
func duplicateKeys(ds records.Dataset, key string) []string {
	counts := make(map[string]int, len(ds.Rows))
	var order []string
	for _, r := range ds.Rows {
		k, ok := canonicalKey(r[key])
		if !ok {
			continue
		}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	var dups []string
	for _, k := range order {
		if counts[k] > 1 {
			dups = append(dups, k)
		}
	}
	return dups
}

func canonicalKey(v any) (string, bool) {
	id, raw := builtin.CoerceID(v)
	if !raw.Valid || raw.String == "" {
		return "", false
	}
	if id.Valid {
		return strconv.FormatInt(id.Int64, 10), true
	}
	return raw.String, true
}
