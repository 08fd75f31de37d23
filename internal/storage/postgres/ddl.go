package postgres

import (
	"fmt"
	"strings"

	"custdq/internal/storage"
)

// MapType maps a logical column type to a Postgres type.
func MapType(kind string) string {
	switch kind {
	case storage.TypeBigint:
		return "BIGINT"
	case storage.TypeTimestamp:
		return "TIMESTAMPTZ"
	case storage.TypeUUID:
		return "UUID"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL renders CREATE TABLE IF NOT EXISTS for t with
// double-quoted identifiers.
func BuildCreateTableSQL(t storage.TableDef) (string, error) {
	cols, err := storage.RenderColumns(t, pgIdent, MapType)
	if err != nil {
		return "", fmt.Errorf("postgres ddl: %w", err)
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		storage.QuoteFQN(t.FQN, pgIdent),
		strings.Join(cols, ",\n  "),
	), nil
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
