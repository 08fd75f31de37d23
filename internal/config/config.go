// Package config defines the configuration model for a customer validation
// run. A Pipeline is the single, fixed configuration object the core
// consumes: the schema, the allowed-country set, the email pattern and the
// output location, plus the input and sink collaborators used by the CLI.
//
// Pipelines are loaded from JSON or YAML files:
//
//	{
//	  "job":    "customers",
//	  "source": { "kind": "file", "file": { "path": "in/customers.csv" } },
//	  "parser": { "kind": "csv", "options": { "has_header": true } },
//	  "rules":  { "allowed_countries": ["UK","US","CA"] },
//	  "output": { "dir": "out" },
//	  "sinks":  [ { "kind": "sqlite", "dsn": "file:qa.db", "accepted_table": "customers", "rejected_table": "customer_rejects" } ]
//	}
//
// Omitted sections take the values returned by Default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"custdq/internal/schema"
	"custdq/pkg/records"
)

// Defaults used when a section is omitted.
const (
	DefaultJob          = "custdq"
	DefaultEmailPattern = `^(?!.*\.\.)[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`
	DefaultOutputDir    = "out"
	DefaultPrefix       = "customers"
	DefaultStampLayout  = "2006-01-02_150405"
	DefaultTimeLayout   = "2006-01-02 15:04:05.000000"
	DefaultBatchSize    = 500
)

// DefaultCountries is the allow-set applied to the normalized country field.
var DefaultCountries = []string{"UK", "US", "CA"}

// Pipeline is the top-level configuration object.
type Pipeline struct {
	// Job labels logs and metrics for this run.
	Job string `json:"job" yaml:"job"`

	Source    Source    `json:"source" yaml:"source"`
	Parser    Parser    `json:"parser" yaml:"parser"`
	Schema    Schema    `json:"schema" yaml:"schema"`
	Normalize Normalize `json:"normalize" yaml:"normalize"`
	Rules     Rules     `json:"rules" yaml:"rules"`
	Output    Output    `json:"output" yaml:"output"`
	Sinks     []Sink    `json:"sinks" yaml:"sinks"`
	Runtime   Runtime   `json:"runtime" yaml:"runtime"`
}

// Source identifies where the raw dataset comes from.
type Source struct {
	// Kind is one of "sample", "file" or "http".
	Kind string     `json:"kind" yaml:"kind"`
	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL string `json:"url" yaml:"url"`

	// Timeout is a Go duration string, e.g. "30s".
	Timeout            string `json:"timeout" yaml:"timeout"`
	MaxRetries         int    `json:"max_retries" yaml:"max_retries"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// Parser selects how raw bytes become a dataset.
type Parser struct {
	// Kind is "csv" or "json".
	Kind string `json:"kind" yaml:"kind"`

	// Options is interpreted by the parser. CSV keys: has_header (bool),
	// comma (string), header_map (object), empty_as_null (bool).
	Options Options `json:"options" yaml:"options"`
}

// Schema configures the field registry. Only the customer contract fields
// may be declared; nullability is the tunable part.
type Schema struct {
	Key    string         `json:"key" yaml:"key"`
	Fields []schema.Field `json:"fields" yaml:"fields"`
}

// Build returns the registry described by s, or the customer contract when
// no fields are declared.
func (s Schema) Build() schema.Schema {
	if len(s.Fields) == 0 {
		return schema.Customer()
	}
	key := s.Key
	if key == "" {
		key = records.FieldCustomerID
	}
	fields := make([]schema.Field, len(s.Fields))
	copy(fields, s.Fields)
	return schema.Schema{Key: key, Fields: fields}
}

// Normalize configures the field normalizer.
type Normalize struct {
	// UpperFields are upper-cased after trimming.
	UpperFields []string `json:"upper_fields" yaml:"upper_fields"`
}

// Rules configures the row-level rules.
type Rules struct {
	AllowedCountries []string `json:"allowed_countries" yaml:"allowed_countries"`

	// EmailPattern uses Perl/.NET regular expression syntax (lookarounds
	// allowed).
	EmailPattern string `json:"email_pattern" yaml:"email_pattern"`
}

// Output configures where and how the two CSV files are written.
type Output struct {
	Dir    string `json:"dir" yaml:"dir"`
	Prefix string `json:"prefix" yaml:"prefix"`

	// StampLayout formats the run timestamp embedded in file names.
	StampLayout string `json:"stamp_layout" yaml:"stamp_layout"`

	// TimeLayout formats the rejection_timestamp column.
	TimeLayout string `json:"time_layout" yaml:"time_layout"`
}

// Sink persists both tables of a successful run into a database.
type Sink struct {
	// Kind is one of "sqlite", "postgres", "mssql", "mysql".
	Kind          string `json:"kind" yaml:"kind"`
	DSN           string `json:"dsn" yaml:"dsn"`
	AcceptedTable string `json:"accepted_table" yaml:"accepted_table"`
	RejectedTable string `json:"rejected_table" yaml:"rejected_table"`

	// AutoCreate issues CREATE TABLE IF NOT EXISTS before loading.
	AutoCreate bool `json:"auto_create" yaml:"auto_create"`
}

// Runtime carries execution knobs.
type Runtime struct {
	// ParallelRules evaluates row rules concurrently.
	ParallelRules bool `json:"parallel_rules" yaml:"parallel_rules"`

	// BatchSize bounds rows per sink insert batch.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// Default returns the fixed configuration of the built-in batch job: the
// built-in sample dataset, the customer schema and CSV output under "out".
func Default() Pipeline {
	var p Pipeline
	p.ApplyDefaults()
	return p
}

// ApplyDefaults fills zero-valued settings in place.
func (p *Pipeline) ApplyDefaults() {
	if strings.TrimSpace(p.Job) == "" {
		p.Job = DefaultJob
	}
	if p.Source.Kind == "" {
		p.Source.Kind = "sample"
	}
	if p.Parser.Kind == "" && p.Source.Kind != "sample" {
		p.Parser.Kind = "csv"
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	if len(p.Normalize.UpperFields) == 0 {
		p.Normalize.UpperFields = []string{records.FieldCountry}
	}
	if len(p.Rules.AllowedCountries) == 0 {
		p.Rules.AllowedCountries = append([]string(nil), DefaultCountries...)
	}
	if p.Rules.EmailPattern == "" {
		p.Rules.EmailPattern = DefaultEmailPattern
	}
	if p.Output.Dir == "" {
		p.Output.Dir = DefaultOutputDir
	}
	if p.Output.Prefix == "" {
		p.Output.Prefix = DefaultPrefix
	}
	if p.Output.StampLayout == "" {
		p.Output.StampLayout = DefaultStampLayout
	}
	if p.Output.TimeLayout == "" {
		p.Output.TimeLayout = DefaultTimeLayout
	}
	if p.Runtime.BatchSize == 0 {
		p.Runtime.BatchSize = DefaultBatchSize
	}
}

// Load reads a pipeline file. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON. Defaults are applied to the result.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	p, err := Decode(b, filepath.Ext(path))
	if err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

// Decode parses b as YAML when ext is ".yaml"/".yml" and as JSON otherwise.
func Decode(b []byte, ext string) (Pipeline, error) {
	var p Pipeline
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &p); err != nil {
			return Pipeline{}, err
		}
	default:
		if err := json.Unmarshal(b, &p); err != nil {
			return Pipeline{}, err
		}
	}
	p.ApplyDefaults()
	return p, nil
}

// Options is a small helper to fetch typed values from a decoded options
// bag. It performs minimal coercion and returns def when a key is absent or
// of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64
// and YAML integers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns the string-valued entries of an object value. Missing
// keys yield an empty map.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON decodes a missing or null options object as an empty map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
