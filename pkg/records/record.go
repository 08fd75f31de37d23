// Package records holds the row shapes that flow through the pipeline: raw
// ingested rows, the normalized Customer, rejection entries, and the
// finalized tables handed to output collaborators.
package records

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Record is a raw ingested row keyed by column name. A nil value is null.
type Record map[string]any

// Dataset is an ordered batch of raw rows plus the column names the input
// collaborator exposed. Order is not meaningful but is stable within a run.
type Dataset struct {
	Columns []string
	Rows    []Record
}

// Empty reports whether the dataset holds zero cells.
func (d Dataset) Empty() bool {
	return len(d.Columns) == 0 || len(d.Rows) == 0
}

// HasColumn reports whether name was exposed by the input collaborator.
func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Customer is a normalized customer row. Line is the 1-based position of the
// row in the source dataset and identifies it through the pipeline.
//
// ID.Valid == false marks a customer_id that could not be coerced to an
// integer. RawID keeps the trimmed pre-cast text used for rejection grouping.
type Customer struct {
	Line    int
	ID      sql.NullInt64
	RawID   sql.NullString
	Name    sql.NullString
	Email   sql.NullString
	Country sql.NullString
}

// Field names of the customer contract.
const (
	FieldCustomerID = "customer_id"
	FieldName       = "name"
	FieldEmail      = "email"
	FieldCountry    = "country"

	ColumnReasons   = "rejection_reasons"
	ColumnTimestamp = "rejection_timestamp"
)

// Text returns the normalized string value of a named field. For
// customer_id the pre-cast text is returned. The bool is false for names
// that are not part of the customer contract.
func (c Customer) Text(field string) (sql.NullString, bool) {
	switch field {
	case FieldCustomerID:
		return c.RawID, true
	case FieldName:
		return c.Name, true
	case FieldEmail:
		return c.Email, true
	case FieldCountry:
		return c.Country, true
	}
	return sql.NullString{}, false
}

// Missing reports whether a text value is null or the empty string.
func Missing(v sql.NullString) bool {
	return !v.Valid || v.String == ""
}

// RejectionEntry is one rejected logical record: the pre-cast field tuple,
// the ordered, de-duplicated reasons, and the run's rejection timestamp.
type RejectionEntry struct {
	CustomerID sql.NullString
	Name       sql.NullString
	Email      sql.NullString
	Country    sql.NullString
	Reasons    []string
	Timestamp  time.Time

	// Lines lists the input positions folded into this entry.
	Lines []int
}

// ReasonSeparator joins reasons in the rejection_reasons column.
const ReasonSeparator = "|"

// ReasonList returns the pipe-delimited rejection_reasons value.
func (e RejectionEntry) ReasonList() string {
	return strings.Join(e.Reasons, ReasonSeparator)
}

// Column sets of the two output tables. The rejection report columns are an
// external contract.
var (
	AcceptedColumns = []string{FieldCustomerID, FieldName, FieldEmail, FieldCountry}
	RejectedColumns = []string{
		FieldCustomerID, FieldName, FieldEmail, FieldCountry,
		ColumnReasons, ColumnTimestamp,
	}
)

// Table is a finalized, column-ordered table. Cell values are nil, string,
// int64 or time.Time.
type Table struct {
	Columns []string
	Rows    [][]any
}

// AcceptedTable lays out accepted customers in AcceptedColumns order with
// customer_id cast to int64.
func AcceptedTable(rows []Customer) Table {
	t := Table{Columns: AcceptedColumns, Rows: make([][]any, 0, len(rows))}
	for _, c := range rows {
		t.Rows = append(t.Rows, []any{c.ID.Int64, nullable(c.Name), nullable(c.Email), nullable(c.Country)})
	}
	return t
}

// RejectedTable lays out rejection entries in RejectedColumns order.
func RejectedTable(entries []RejectionEntry) Table {
	t := Table{Columns: RejectedColumns, Rows: make([][]any, 0, len(entries))}
	for _, e := range entries {
		t.Rows = append(t.Rows, []any{
			nullable(e.CustomerID),
			nullable(e.Name),
			nullable(e.Email),
			nullable(e.Country),
			e.ReasonList(),
			e.Timestamp,
		})
	}
	return t
}

func nullable(v sql.NullString) any {
	if !v.Valid {
		return nil
	}
	return v.String
}

// FormatCell renders a table cell as CSV text. nil renders as the empty
// string; time values use layout.
func FormatCell(v any, layout string) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case time.Time:
		return t.Format(layout)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
