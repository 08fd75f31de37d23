package mysql

import (
	"fmt"
	"strings"

	"custdq/internal/storage"
)

// MapType maps a logical column type to a MySQL type.
func MapType(kind string) string {
	switch kind {
	case storage.TypeBigint:
		return "BIGINT"
	case storage.TypeTimestamp:
		return "DATETIME(6)"
	case storage.TypeUUID:
		return "CHAR(36)"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL renders CREATE TABLE IF NOT EXISTS for t with
// backtick-quoted identifiers.
func BuildCreateTableSQL(t storage.TableDef) (string, error) {
	cols, err := storage.RenderColumns(t, myIdent, MapType)
	if err != nil {
		return "", fmt.Errorf("mysql ddl: %w", err)
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		storage.QuoteFQN(t.FQN, myIdent),
		strings.Join(cols, ",\n  "),
	), nil
}

func myIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }
