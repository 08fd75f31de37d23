// Package json turns JSON objects into a records.Dataset.
//
// Accepted shapes:
//
//   - a top-level array of objects: [{"customer_id":1}, {"customer_id":2}]
//   - newline-delimited objects (NDJSON), or several arrays back to back.
//
// JSON null decodes to nil and "" stays "", so unlike CSV the input can
// tell the two apart. Numbers decode as json.Number.
package json

import (
	"errors"
	"fmt"
	"io"
	"sort"

	json "github.com/goccy/go-json"

	"custdq/internal/config"
	"custdq/pkg/records"
)

// Options configures the JSON parser.
type Options struct {
	// AllowArrays accepts top-level arrays of objects. Defaults to true.
	AllowArrays bool

	// SkipNonObjects drops top-level primitives instead of failing.
	SkipNonObjects bool
}

// FromConfigOptions constructs Options from a parser options bag.
func FromConfigOptions(o config.Options) Options {
	return Options{
		AllowArrays:    o.Bool("allow_arrays", true),
		SkipNonObjects: o.Bool("skip_non_objects", false),
	}
}

// Parser decodes JSON input into a Dataset.
type Parser struct{ opt Options }

// NewParser constructs a Parser.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads every top-level value from r. Columns is the union of object
// keys: the keys of each object not seen before are appended in sorted
// order, so the result does not depend on map iteration.
func (p *Parser) Parse(r io.Reader) (records.Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var ds records.Dataset
	seen := map[string]struct{}{}
	add := func(obj map[string]any) {
		var fresh []string
		for k := range obj {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		ds.Columns = append(ds.Columns, fresh...)
		ds.Rows = append(ds.Rows, records.Record(obj))
	}

	for n := 0; ; n++ {
		var root any
		if err := dec.Decode(&root); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return records.Dataset{}, fmt.Errorf("json parser: decode value %d: %w", n, err)
		}

		switch v := root.(type) {
		case map[string]any:
			add(v)
		case []any:
			if !p.opt.AllowArrays {
				return records.Dataset{}, fmt.Errorf("json parser: top-level array encountered but allow_arrays=false")
			}
			for i, elem := range v {
				obj, ok := elem.(map[string]any)
				if !ok {
					return records.Dataset{}, fmt.Errorf("json parser: element %d in array is not an object", i)
				}
				add(obj)
			}
		default:
			if p.opt.SkipNonObjects {
				continue
			}
			return records.Dataset{}, fmt.Errorf("json parser: unsupported top-level JSON type %T", v)
		}
	}
	return ds, nil
}
