// Package config provides configuration models and helpers for validation
// runs.
//
// This file adds a lightweight linter for Pipeline values. It performs
// static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"custdq/internal/schema"
	"custdq/pkg/records"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single lint finding. Path is a dotted path into the
// config (e.g. "sinks[0].dsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// SinkKinds lists the storage kinds a sink may name.
var SinkKinds = []string{"sqlite", "postgres", "mssql", "mysql"}

// contractTypes is the declared type of each customer contract field.
var contractTypes = map[string]string{
	records.FieldCustomerID: schema.TypeInt64,
	records.FieldName:       schema.TypeString,
	records.FieldEmail:      schema.TypeString,
	records.FieldCountry:    schema.TypeString,
}

// ValidatePipeline performs static validation of p. It does not mutate p.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics",
		})
	}
	issues = append(issues, validateSource(p.Source, p.Parser)...)
	issues = append(issues, validateSchema(p.Schema)...)
	issues = append(issues, validateNormalize(p.Normalize)...)
	issues = append(issues, validateRules(p.Rules)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateSinks(p.Sinks)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

func validateSource(s Source, p Parser) []Issue {
	var issues []Issue

	switch s.Kind {
	case "sample":
		return nil
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{SeverityError, "source.file.path", "file source requires a non-empty path"})
		}
	case "http":
		u := strings.TrimSpace(s.HTTP.URL)
		if u == "" {
			issues = append(issues, Issue{SeverityError, "source.http.url", "http source requires a url"})
		} else if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			issues = append(issues, Issue{SeverityError, "source.http.url", fmt.Sprintf("url %q must use http or https", u)})
		}
		if s.HTTP.MaxRetries < 0 {
			issues = append(issues, Issue{SeverityError, "source.http.max_retries", "max_retries must be >= 0"})
		}
	case "":
		return append(issues, Issue{SeverityError, "source.kind", "source.kind must not be empty"})
	default:
		return append(issues, Issue{SeverityError, "source.kind", fmt.Sprintf("unknown source kind %q", s.Kind)})
	}

	switch p.Kind {
	case "csv":
		if !p.Options.Bool("has_header", true) {
			issues = append(issues, Issue{SeverityError, "parser.options.has_header", "csv input must carry a header row naming its columns"})
		}
	case "json":
	case "":
		issues = append(issues, Issue{SeverityError, "parser.kind", "parser.kind must not be empty"})
	default:
		issues = append(issues, Issue{SeverityError, "parser.kind", fmt.Sprintf("unknown parser kind %q", p.Kind)})
	}
	return issues
}

func validateSchema(s Schema) []Issue {
	if len(s.Fields) == 0 {
		return nil
	}
	var issues []Issue
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		path := fmt.Sprintf("schema.fields[%d]", i)
		want, known := contractTypes[f.Name]
		switch {
		case !known:
			issues = append(issues, Issue{SeverityError, path + ".name", fmt.Sprintf("field %q is not part of the customer contract", f.Name)})
		case f.Type != want:
			issues = append(issues, Issue{SeverityError, path + ".type", fmt.Sprintf("field %q must be %s, got %q", f.Name, want, f.Type)})
		}
		if seen[f.Name] {
			issues = append(issues, Issue{SeverityError, path + ".name", fmt.Sprintf("field %q declared twice", f.Name)})
		}
		seen[f.Name] = true
	}
	key := s.Build().Key
	if key != records.FieldCustomerID {
		issues = append(issues, Issue{SeverityError, "schema.key", fmt.Sprintf("key must be %q, got %q", records.FieldCustomerID, key)})
	}
	if !seen[key] {
		issues = append(issues, Issue{SeverityError, "schema.fields", fmt.Sprintf("key field %q is not declared", key)})
	}
	for _, f := range s.Fields {
		if f.Name == key && f.Nullable {
			issues = append(issues, Issue{SeverityError, "schema.fields", "the key field cannot be nullable"})
		}
	}
	return issues
}

func validateNormalize(n Normalize) []Issue {
	var issues []Issue
	for i, f := range n.UpperFields {
		if contractTypes[f] != schema.TypeString {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("normalize.upper_fields[%d]", i), fmt.Sprintf("%q is not a string field", f)})
		}
	}
	return issues
}

func validateRules(r Rules) []Issue {
	var issues []Issue
	if len(r.AllowedCountries) == 0 {
		issues = append(issues, Issue{SeverityError, "rules.allowed_countries", "allow-set must not be empty"})
	}
	for i, c := range r.AllowedCountries {
		if c != strings.ToUpper(strings.TrimSpace(c)) || c == "" {
			issues = append(issues, Issue{SeverityWarning, fmt.Sprintf("rules.allowed_countries[%d]", i),
				fmt.Sprintf("%q is not in normalized (trimmed, upper-case) form and can never match", c)})
		}
	}
	if _, err := regexp2.Compile(r.EmailPattern, regexp2.None); err != nil {
		issues = append(issues, Issue{SeverityError, "rules.email_pattern", fmt.Sprintf("pattern does not compile: %v", err)})
	}
	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue
	if strings.TrimSpace(o.Dir) == "" {
		issues = append(issues, Issue{SeverityError, "output.dir", "output directory must not be empty"})
	}
	if strings.ContainsAny(o.Prefix, `/\`) {
		issues = append(issues, Issue{SeverityError, "output.prefix", "prefix must not contain path separators"})
	}
	if o.StampLayout != "" && !strings.ContainsAny(o.StampLayout, "0123456789") {
		issues = append(issues, Issue{SeverityError, "output.stamp_layout", "stamp layout has no time fields; runs would overwrite each other"})
	}
	return issues
}

func validateSinks(sinks []Sink) []Issue {
	var issues []Issue
	for i, s := range sinks {
		path := fmt.Sprintf("sinks[%d]", i)
		known := false
		for _, k := range SinkKinds {
			if s.Kind == k {
				known = true
			}
		}
		if !known {
			issues = append(issues, Issue{SeverityError, path + ".kind", fmt.Sprintf("unknown sink kind %q (want one of %v)", s.Kind, SinkKinds)})
		}
		if strings.TrimSpace(s.DSN) == "" {
			issues = append(issues, Issue{SeverityError, path + ".dsn", "dsn must not be empty"})
		}
		if strings.TrimSpace(s.AcceptedTable) == "" || strings.TrimSpace(s.RejectedTable) == "" {
			issues = append(issues, Issue{SeverityError, path, "accepted_table and rejected_table are required"})
		} else if s.AcceptedTable == s.RejectedTable {
			issues = append(issues, Issue{SeverityError, path, "accepted_table and rejected_table must differ"})
		}
	}
	return issues
}

func validateRuntime(r Runtime) []Issue {
	if r.BatchSize < 0 {
		return []Issue{{SeverityError, "runtime.batch_size", "batch_size must be > 0"}}
	}
	return nil
}
