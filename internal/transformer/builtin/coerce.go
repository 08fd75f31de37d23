package builtin

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CoerceID converts a raw customer_id cell into an integer. raw is the
// trimmed pre-cast text (null stays null). id.Valid is false when the value
// is null, empty, non-numeric, non-integral or outside the int64 range;
// coercion never fails the run.
func CoerceID(v any) (id sql.NullInt64, raw sql.NullString) {
	raw = CellText(v)
	switch t := v.(type) {
	case nil:
		return id, raw
	case int:
		return sql.NullInt64{Int64: int64(t), Valid: true}, raw
	case int32:
		return sql.NullInt64{Int64: int64(t), Valid: true}, raw
	case int64:
		return sql.NullInt64{Int64: t, Valid: true}, raw
	case float64:
		return fromFloat(t), raw
	case bool:
		return id, raw
	}
	if !raw.Valid || raw.String == "" {
		return id, raw
	}
	s := strings.TrimSpace(raw.String)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return sql.NullInt64{Int64: n, Valid: true}, raw
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return id, raw
	}
	return fromFloat(f), raw
}

// fromFloat accepts integral finite values that fit in int64.
func fromFloat(f float64) sql.NullInt64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return sql.NullInt64{}
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(f), Valid: true}
}

// CellText renders a raw cell as trimmed text. nil is null; "" stays a
// valid empty string. Numbers render in their shortest decimal form and
// anything implementing fmt.Stringer (json.Number) through String.
func CellText(v any) sql.NullString {
	var s string
	switch t := v.(type) {
	case nil:
		return sql.NullString{}
	case string:
		s = t
	case int:
		s = strconv.Itoa(t)
	case int32:
		s = strconv.FormatInt(int64(t), 10)
	case int64:
		s = strconv.FormatInt(t, 10)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	return sql.NullString{String: strings.TrimSpace(s), Valid: true}
}
