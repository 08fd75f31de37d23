package builtin

import (
	"database/sql"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"custdq/internal/schema"
	"custdq/pkg/records"
)

// Normalize turns raw rows into typed Customers. String fields are NFC
// normalized, have NO-BREAK SPACE folded to a space and are trimmed; fields
// in Upper are upper-cased afterwards. Null and "" are kept apart.
//
// Only the string fields of Schema are cleaned; other cells are kept as
// trimmed text. Normalize never rejects a row and never mutates the dataset.
type Normalize struct {
	Schema schema.Schema
	Upper  []string
}

const nbsp = '\u00a0'

func (n Normalize) Apply(ds records.Dataset) []records.Customer {
	upper := make(map[string]bool, len(n.Upper))
	for _, f := range n.Upper {
		upper[f] = true
	}
	cleaned := make(map[string]bool)
	for _, f := range n.Schema.StringFields() {
		cleaned[f] = true
	}
	caser := cases.Upper(language.Und)
	t := transform.Chain(norm.NFC, runes.Map(func(r rune) rune {
		if r == nbsp {
			return ' '
		}
		return r
	}))

	text := func(rec records.Record, field string) sql.NullString {
		v := CellText(rec[field])
		if !v.Valid || v.String == "" || !cleaned[field] {
			return v
		}
		s, _, err := transform.String(t, v.String)
		if err != nil {
			s = v.String
		}
		s = strings.TrimSpace(s)
		if upper[field] {
			s = caser.String(s)
		}
		return sql.NullString{String: s, Valid: true}
	}

	out := make([]records.Customer, 0, len(ds.Rows))
	for i, rec := range ds.Rows {
		c := records.Customer{Line: i + 1}
		c.ID, c.RawID = CoerceID(rec[records.FieldCustomerID])
		c.Name = text(rec, records.FieldName)
		c.Email = text(rec, records.FieldEmail)
		c.Country = text(rec, records.FieldCountry)
		out = append(out, c)
	}
	return out
}
