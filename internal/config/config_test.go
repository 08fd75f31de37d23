package config

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"custdq/internal/schema"
)

// -----------------------------------------------------------------------------
// Pipeline decoding tests
// -----------------------------------------------------------------------------
//
// These tests validate that JSON and YAML pipeline files decode into the same
// struct graph and that omitted sections pick up the defaults of the built-in
// sample job.

const pipelineJSON = `{
  "job": "nightly-customers",
  "source": { "kind": "file", "file": { "path": "in/customers.csv" } },
  "parser": { "kind": "csv", "options": { "has_header": true, "comma": ";", "header_map": { "E-mail": "email" } } },
  "schema": { "fields": [
    { "name": "customer_id", "type": "int64" },
    { "name": "name", "type": "string", "nullable": true },
    { "name": "email", "type": "string" },
    { "name": "country", "type": "string" }
  ] },
  "rules": { "allowed_countries": ["UK", "US"] },
  "output": { "dir": "/tmp/qa" },
  "sinks": [ { "kind": "sqlite", "dsn": "file:qa.db", "accepted_table": "customers", "rejected_table": "customer_rejects", "auto_create": true } ],
  "runtime": { "parallel_rules": true, "batch_size": 100 }
}`

const pipelineYAML = `
job: nightly-customers
source:
  kind: file
  file:
    path: in/customers.csv
parser:
  kind: csv
  options:
    has_header: true
    comma: ";"
    header_map:
      E-mail: email
schema:
  fields:
    - { name: customer_id, type: int64 }
    - { name: name, type: string, nullable: true }
    - { name: email, type: string }
    - { name: country, type: string }
rules:
  allowed_countries: [UK, US]
output:
  dir: /tmp/qa
sinks:
  - kind: sqlite
    dsn: "file:qa.db"
    accepted_table: customers
    rejected_table: customer_rejects
    auto_create: true
runtime:
  parallel_rules: true
  batch_size: 100
`

func TestDecode_JSONAndYAMLAgree(t *testing.T) {
	t.Parallel()

	fromJSON, err := Decode([]byte(pipelineJSON), ".json")
	if err != nil {
		t.Fatalf("Decode(json): %v", err)
	}
	fromYAML, err := Decode([]byte(pipelineYAML), ".yaml")
	if err != nil {
		t.Fatalf("Decode(yaml): %v", err)
	}

	// Options maps differ only in how each decoder represents values; compare
	// them through the typed accessors instead.
	for name, p := range map[string]Pipeline{"json": fromJSON, "yaml": fromYAML} {
		if got := p.Parser.Options.Rune("comma", ','); got != ';' {
			t.Fatalf("%s: comma = %q, want ';'", name, got)
		}
		if hm := p.Parser.Options.StringMap("header_map"); hm["E-mail"] != "email" {
			t.Fatalf("%s: header_map = %#v", name, hm)
		}
	}
	fromJSON.Parser.Options, fromYAML.Parser.Options = nil, nil
	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Fatalf("json and yaml decode differently (-json +yaml):\n%s", diff)
	}

	p := fromJSON
	if p.Source.Kind != "file" || p.Source.File.Path != "in/customers.csv" {
		t.Fatalf("source = %#v", p.Source)
	}
	if diff := cmp.Diff([]string{"customer_id", "email", "country"}, p.Schema.Build().Required()); diff != "" {
		t.Fatalf("required fields (-want +got):\n%s", diff)
	}
	if len(p.Sinks) != 1 || !p.Sinks[0].AutoCreate || p.Sinks[0].RejectedTable != "customer_rejects" {
		t.Fatalf("sinks = %#v", p.Sinks)
	}
	if !p.Runtime.ParallelRules || p.Runtime.BatchSize != 100 {
		t.Fatalf("runtime = %#v", p.Runtime)
	}
	// Defaults fill the sections the file left out.
	if p.Rules.EmailPattern != DefaultEmailPattern || p.Output.Prefix != DefaultPrefix {
		t.Fatalf("defaults not applied: rules=%#v output=%#v", p.Rules, p.Output)
	}
}

func TestDefault_SampleJob(t *testing.T) {
	t.Parallel()

	p := Default()
	if p.Source.Kind != "sample" {
		t.Fatalf("default source = %q, want sample", p.Source.Kind)
	}
	if diff := cmp.Diff(schema.Customer(), p.Schema.Build()); diff != "" {
		t.Fatalf("default schema (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"UK", "US", "CA"}, p.Rules.AllowedCountries); diff != "" {
		t.Fatalf("default countries (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"country"}, p.Normalize.UpperFields); diff != "" {
		t.Fatalf("default upper fields (-want +got):\n%s", diff)
	}
	if issues := ValidatePipeline(p); len(issues) != 0 {
		t.Fatalf("default pipeline should lint clean, got %v", issues)
	}
}

func TestLoad_ByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	yml := filepath.Join(dir, "p.yml")
	if err := os.WriteFile(yml, []byte(pipelineYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(yml)
	if err != nil {
		t.Fatalf("Load(yml): %v", err)
	}
	if p.Job != "nightly-customers" {
		t.Fatalf("job = %q", p.Job)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"job": `), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatalf("Load(bad.json) should fail")
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("Load(missing) should fail")
	}
}

// -----------------------------------------------------------------------------
// Options helper tests.
// -----------------------------------------------------------------------------

func TestOptions_DefaultsAndCoercion(t *testing.T) {
	t.Parallel()

	o := Options{
		"s":  "hello",
		"b":  true,
		"i":  float64(42), // JSON numbers decode as float64
		"iy": 7,           // YAML integers decode as int
		"r":  "ž",
		"m":  map[string]any{"A": "a", "X": 1},
	}

	if got := o.String("s", "def"); got != "hello" {
		t.Fatalf("String(s) = %q", got)
	}
	if got := o.String("b", "def"); got != "def" {
		t.Fatalf("String(b) should fall back to def, got %q", got)
	}
	if got := o.Bool("missing", true); !got {
		t.Fatalf("Bool(missing) = %v, want true", got)
	}
	if got := o.Int("i", 0); got != 42 {
		t.Fatalf("Int(i) = %d", got)
	}
	if got := o.Int("iy", 0); got != 7 {
		t.Fatalf("Int(iy) = %d", got)
	}
	if r := o.Rune("r", 'x'); !utf8.ValidRune(r) || string(r) != "ž" {
		t.Fatalf("Rune(r) = %#U", r)
	}
	if diff := cmp.Diff(map[string]string{"A": "a"}, o.StringMap("m")); diff != "" {
		t.Fatalf("StringMap (-want +got):\n%s", diff)
	}
	if m := o.StringMap("missing"); m == nil || len(m) != 0 {
		t.Fatalf("StringMap(missing) = %#v, want empty map", m)
	}

	var null Options
	if err := null.UnmarshalJSON([]byte("null")); err != nil || null == nil {
		t.Fatalf("null options should decode to empty map, got %#v err=%v", null, err)
	}
}

func TestEnvApply(t *testing.T) {
	t.Setenv("CUSTDQ_OUTPUT_DIR", "/data/out")
	t.Setenv("METRICS_BACKEND", "none")

	e, err := LoadEnv(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if e.LogLevel != "info" || e.MetricsBackend != "none" {
		t.Fatalf("env = %#v", e)
	}
	p := Default()
	e.Apply(&p)
	if p.Output.Dir != "/data/out" {
		t.Fatalf("output dir = %q", p.Output.Dir)
	}
}

// TestShippedConfigs keeps the example pipelines under configs/ loadable and
// lint-clean.
func TestShippedConfigs(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"customers.yaml", "customers-http.json"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p, err := Load(filepath.Join("..", "..", "configs", "pipelines", name))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if issues := ValidatePipeline(p); HasErrors(issues) {
				t.Fatalf("issues: %v", issues)
			}
		})
	}
}
