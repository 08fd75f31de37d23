// Package parser turns raw input bytes into a records.Dataset.
package parser

import (
	"fmt"
	"io"

	"custdq/internal/config"
	pcsv "custdq/internal/parser/csv"
	pjson "custdq/internal/parser/json"
	"custdq/pkg/records"
)

// Parser decodes a whole input into a Dataset. Column names are the ones the
// input exposes, in input order.
type Parser interface {
	Parse(r io.Reader) (records.Dataset, error)
}

// New builds the parser named by cfg.Kind.
func New(cfg config.Parser) (Parser, error) {
	switch cfg.Kind {
	case "csv":
		return pcsv.NewParser(pcsv.FromConfigOptions(cfg.Options)), nil
	case "json":
		return pjson.NewParser(pjson.FromConfigOptions(cfg.Options)), nil
	default:
		return nil, fmt.Errorf("parser: unknown kind %q", cfg.Kind)
	}
}
