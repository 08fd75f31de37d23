package builtin

import (
	"database/sql"
	stdjson "encoding/json"
	"math"
	"testing"
)

/*
TestCoerceID_TableDriven pins the customer_id cast: integers in any raw
form are accepted, everything else becomes the unparseable marker while the
trimmed pre-cast text is kept for grouping.
*/
func TestCoerceID_TableDriven(t *testing.T) {
	t.Parallel()

	valid := func(n int64) sql.NullInt64 { return sql.NullInt64{Int64: n, Valid: true} }
	text := func(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

	tests := []struct {
		name    string
		in      any
		wantID  sql.NullInt64
		wantRaw sql.NullString
	}{
		{"int", 7, valid(7), text("7")},
		{"int64", int64(8), valid(8), text("8")},
		{"integral float", float64(2), valid(2), text("2")},
		{"json number", stdjson.Number("12"), valid(12), text("12")},
		{"plain string", "2", valid(2), text("2")},
		{"padded string", " 2 ", valid(2), text("2")},
		{"decimal string", "2.0", valid(2), text("2.0")},
		{"negative", "-5", valid(-5), text("-5")},
		{"nil", nil, sql.NullInt64{}, sql.NullString{}},
		{"empty", "", sql.NullInt64{}, text("")},
		{"blank", "   ", sql.NullInt64{}, text("")},
		{"letters", "abc", sql.NullInt64{}, text("abc")},
		{"fraction", "2.5", sql.NullInt64{}, text("2.5")},
		{"fraction float", 2.5, sql.NullInt64{}, text("2.5")},
		{"nan", math.NaN(), sql.NullInt64{}, text("NaN")},
		{"too large", "1e30", sql.NullInt64{}, text("1e30")},
		{"bool", true, sql.NullInt64{}, text("true")},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			id, raw := CoerceID(tc.in)
			if id != tc.wantID {
				t.Fatalf("CoerceID(%#v) id = %+v, want %+v", tc.in, id, tc.wantID)
			}
			if raw != tc.wantRaw {
				t.Fatalf("CoerceID(%#v) raw = %+v, want %+v", tc.in, raw, tc.wantRaw)
			}
		})
	}
}
