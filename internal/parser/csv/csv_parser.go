// Package csv parses a delimited text file with a header row into a
// records.Dataset.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"custdq/internal/config"
	"custdq/pkg/records"
)

// Options configures the CSV parser behavior. Zero values are usable except
// HasHeader, which callers normally set.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	// Without a header columns are named col_0..col_N.
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// HeaderMap maps source header names to canonical keys, e.g.
	// "E-mail" -> "email". Unmapped headers are lower-cased and spaces
	// become underscores.
	HeaderMap map[string]string

	// EmptyAsNull turns empty cells into nil. Quoted and unquoted empty
	// cells are indistinguishable after encoding/csv, so this is the only
	// way a CSV input can carry a null.
	EmptyAsNull bool
}

// FromConfigOptions builds Options from a parser options bag.
func FromConfigOptions(o config.Options) Options {
	return Options{
		HasHeader:   o.Bool("has_header", true),
		Comma:       o.Rune("comma", ','),
		HeaderMap:   o.StringMap("header_map"),
		EmptyAsNull: o.Bool("empty_as_null", true),
	}
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs but not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Parse reads the whole input. A malformed line fails the parse with its
// line number: a dropped row would silently escape validation.
func (p *Parser) Parse(r io.Reader) (records.Dataset, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}

	var ds records.Dataset
	if p.opt.HasHeader {
		h, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return ds, nil
		}
		if err != nil {
			return ds, fmt.Errorf("read csv header: %w", err)
		}
		ds.Columns = normalizeHeaders(h, p.opt)
		if dup := firstDuplicate(ds.Columns); dup != "" {
			return records.Dataset{}, fmt.Errorf("csv header: column %q appears twice", dup)
		}
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records.Dataset{}, fmt.Errorf("read csv: %w", err)
		}
		if ds.Columns == nil {
			ds.Columns = make([]string, len(row))
			for i := range row {
				ds.Columns[i] = keyFor(i, nil)
			}
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.EmptyAsNull {
				rec[keyFor(i, ds.Columns)] = emptyToNil(val)
			} else {
				rec[keyFor(i, ds.Columns)] = val
			}
		}
		ds.Rows = append(ds.Rows, rec)
	}
	return ds, nil
}

// keyFor returns the column key for index idx, using headers when available,
// otherwise synthesizing a "col_N" name.
func keyFor(idx int, headers []string) string {
	if idx < len(headers) && headers[idx] != "" {
		return headers[idx]
	}
	return fmt.Sprintf("col_%d", idx)
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders produces canonical header keys using HeaderMap (when
// provided) and simple normalization (lowercase, spaces to underscores). It
// also strips a UTF-8 BOM from the first cell if present.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := col
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		c = strings.TrimSpace(c)
		if m, ok := opt.HeaderMap[c]; ok {
			res[i] = m
			continue
		}
		res[i] = strings.ReplaceAll(strings.ToLower(c), " ", "_")
	}
	return res
}

func firstDuplicate(cols []string) string {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, ok := seen[c]; ok {
			return c
		}
		seen[c] = struct{}{}
	}
	return ""
}
