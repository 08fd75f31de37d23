package sqlite

import (
	"fmt"
	"strings"

	"custdq/internal/storage"
)

// MapType maps a logical column type to a SQLite type affinity. Timestamps
// are stored as ISO-8601 text.
func MapType(kind string) string {
	switch kind {
	case storage.TypeBigint:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL renders CREATE TABLE IF NOT EXISTS for t.
func BuildCreateTableSQL(t storage.TableDef) (string, error) {
	cols, err := storage.RenderColumns(t, quoteIdent, MapType)
	if err != nil {
		return "", fmt.Errorf("sqlite ddl: %w", err)
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		storage.QuoteFQN(t.FQN, quoteIdent),
		strings.Join(cols, ",\n  "),
	), nil
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
