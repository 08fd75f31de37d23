package mssql

import (
	"fmt"
	"strings"

	"custdq/internal/storage"
)

// MapType maps a logical column type to a SQL Server type. Run ids are kept
// as text so bulk copy can send them as plain strings.
func MapType(kind string) string {
	switch kind {
	case storage.TypeBigint:
		return "BIGINT"
	case storage.TypeTimestamp:
		return "DATETIME2"
	case storage.TypeUUID:
		return "NVARCHAR(36)"
	default:
		return "NVARCHAR(MAX)"
	}
}

// BuildCreateTableSQL returns a T-SQL batch that creates t when it does not
// exist yet. T-SQL has no CREATE TABLE IF NOT EXISTS, so the statement is
// guarded with OBJECT_ID:
//
//	IF OBJECT_ID(N'[dbo].[t]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [dbo].[t] (...);
//	END
func BuildCreateTableSQL(t storage.TableDef) (string, error) {
	cols, err := storage.RenderColumns(t, msIdent, MapType)
	if err != nil {
		return "", fmt.Errorf("mssql ddl: %w", err)
	}
	fqn := storage.QuoteFQN(t.FQN, msIdent)
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND",
		strings.ReplaceAll(fqn, "'", "''"),
		fqn,
		strings.Join(cols, ",\n    "),
	), nil
}

// msIdent quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }
