package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"custdq/pkg/records"
)

// Logical column types. Backends map them to native SQL types.
const (
	TypeText      = "text"
	TypeBigint    = "bigint"
	TypeTimestamp = "timestamp"
	TypeUUID      = "uuid"
)

// RunIDColumn leads every sink table so rows from different runs can be
// told apart.
const RunIDColumn = "run_id"

// ColumnDef describes one column. Name is unquoted; quoting happens when a
// backend renders the statement.
type ColumnDef struct {
	Name     string
	Type     string
	Nullable bool
}

// TableDef is a table name (optionally dotted, e.g. "dbo.customers") and an
// ordered column list.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names in order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// AcceptedTableDef is the sink layout of the accepted table.
func AcceptedTableDef(fqn string) TableDef {
	return TableDef{FQN: fqn, Columns: []ColumnDef{
		{Name: RunIDColumn, Type: TypeUUID},
		{Name: records.FieldCustomerID, Type: TypeBigint},
		{Name: records.FieldName, Type: TypeText, Nullable: true},
		{Name: records.FieldEmail, Type: TypeText, Nullable: true},
		{Name: records.FieldCountry, Type: TypeText, Nullable: true},
	}}
}

// RejectedTableDef is the sink layout of the rejection report.
func RejectedTableDef(fqn string) TableDef {
	return TableDef{FQN: fqn, Columns: []ColumnDef{
		{Name: RunIDColumn, Type: TypeUUID},
		{Name: records.FieldCustomerID, Type: TypeText, Nullable: true},
		{Name: records.FieldName, Type: TypeText, Nullable: true},
		{Name: records.FieldEmail, Type: TypeText, Nullable: true},
		{Name: records.FieldCountry, Type: TypeText, Nullable: true},
		{Name: records.ColumnReasons, Type: TypeText},
		{Name: records.ColumnTimestamp, Type: TypeTimestamp},
	}}
}

// DDLBuilder renders a backend-specific CREATE TABLE statement that is a
// no-op when the table already exists.
type DDLBuilder func(t TableDef) (string, error)

var (
	ddlMu       sync.RWMutex
	ddlBuilders = map[string]DDLBuilder{}
)

// RegisterDDL installs (or replaces) the DDL builder for kind.
func RegisterDDL(kind string, b DDLBuilder) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlBuilders[kind] = b
}

// EnsureTable renders t with the builder registered for kind and applies it
// through repo.
func EnsureTable(ctx context.Context, kind string, repo Repository, t TableDef) error {
	ddlMu.RLock()
	b, ok := ddlBuilders[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL builder registered for storage.kind=%q", kind)
	}
	stmt, err := b(t)
	if err != nil {
		return fmt.Errorf("build DDL for %s: %w", t.FQN, err)
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("apply DDL for %s: %w", t.FQN, err)
	}
	return nil
}

// ValidateTableDef checks the fields every backend needs before rendering.
func ValidateTableDef(t TableDef) error {
	if strings.TrimSpace(t.FQN) == "" {
		return fmt.Errorf("table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("at least one column is required")
	}
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("column with empty name in table %s", t.FQN)
		}
	}
	return nil
}

// SplitFQN splits a dotted table name into trimmed, non-empty parts.
func SplitFQN(fqn string) []string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RenderColumns validates t and renders its column clauses as
// `<quoted name> <native type> [NOT NULL]`, one per column.
func RenderColumns(t TableDef, quote func(string) string, mapType func(string) string) ([]string, error) {
	if err := ValidateTableDef(t); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		var sb strings.Builder
		sb.WriteString(quote(strings.TrimSpace(c.Name)))
		sb.WriteByte(' ')
		sb.WriteString(mapType(c.Type))
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		out = append(out, sb.String())
	}
	return out, nil
}

// QuoteFQN quotes each part of a dotted name with quote and rejoins them.
func QuoteFQN(fqn string, quote func(string) string) string {
	parts := SplitFQN(fqn)
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}
