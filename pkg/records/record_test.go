package records

import (
	"database/sql"
	"testing"
	"time"
)

func TestDatasetEmpty(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ds   Dataset
		want bool
	}{
		{"zero value", Dataset{}, true},
		{"columns without rows", Dataset{Columns: []string{"a"}}, true},
		{"rows without columns", Dataset{Rows: []Record{{}}}, true},
		{"one cell", Dataset{Columns: []string{"a"}, Rows: []Record{{"a": nil}}}, false},
	}
	for _, tc := range cases {
		if got := tc.ds.Empty(); got != tc.want {
			t.Fatalf("%s: Empty()=%v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestRejectedTableLayout(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tbl := RejectedTable([]RejectionEntry{{
		CustomerID: sql.NullString{},
		Name:       sql.NullString{String: "David", Valid: true},
		Email:      sql.NullString{String: "", Valid: true},
		Country:    sql.NullString{String: "UK", Valid: true},
		Reasons:    []string{"Invalid customer_id", "Null required field: email"},
		Timestamp:  ts,
	}})

	if len(tbl.Columns) != 6 || tbl.Columns[4] != "rejection_reasons" {
		t.Fatalf("unexpected columns %v", tbl.Columns)
	}
	row := tbl.Rows[0]
	if row[0] != nil {
		t.Fatalf("null customer_id should stay nil, got %#v", row[0])
	}
	if row[2] != "" {
		t.Fatalf("empty email should stay empty string, got %#v", row[2])
	}
	if row[4] != "Invalid customer_id|Null required field: email" {
		t.Fatalf("reasons = %q", row[4])
	}
	if got := FormatCell(row[5], "2006-01-02 15:04:05"); got != "2025-03-01 10:00:00" {
		t.Fatalf("timestamp cell = %q", got)
	}
}

func TestCustomerText(t *testing.T) {
	t.Parallel()

	c := Customer{
		RawID:   sql.NullString{String: "9", Valid: true},
		Country: sql.NullString{String: "US", Valid: true},
	}
	if v, ok := c.Text(FieldCustomerID); !ok || v.String != "9" {
		t.Fatalf("customer_id text = %#v ok=%v", v, ok)
	}
	if v, ok := c.Text(FieldName); !ok || v.Valid {
		t.Fatalf("name should be known and null, got %#v ok=%v", v, ok)
	}
	if _, ok := c.Text("phone"); ok {
		t.Fatalf("unknown field reported as known")
	}
	if !Missing(sql.NullString{Valid: true}) || !Missing(sql.NullString{}) {
		t.Fatalf("null and empty should both be missing")
	}
}
