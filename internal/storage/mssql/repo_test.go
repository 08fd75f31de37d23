package mssql

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"custdq/internal/storage"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(storage.AcceptedTableDef("dbo.accepted"))
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := `IF OBJECT_ID(N'[dbo].[accepted]', N'U') IS NULL
BEGIN
  CREATE TABLE [dbo].[accepted] (
    [run_id] NVARCHAR(36) NOT NULL,
    [customer_id] BIGINT NOT NULL,
    [name] NVARCHAR(MAX),
    [email] NVARCHAR(MAX),
    [country] NVARCHAR(MAX)
  );
END`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("DDL mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCreateTableSQL_Escaping(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(storage.TableDef{
		FQN:     "o'brien.t]x",
		Columns: []storage.ColumnDef{{Name: "a", Type: storage.TypeText}},
	})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	if !strings.Contains(got, "N'[o''brien].[t]]x]'") || !strings.Contains(got, "CREATE TABLE [o'brien].[t]]x]") {
		t.Fatalf("unexpected escaping:\n%s", got)
	}
}

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		storage.TypeBigint:    "BIGINT",
		storage.TypeTimestamp: "DATETIME2",
		storage.TypeUUID:      "NVARCHAR(36)",
		storage.TypeText:      "NVARCHAR(MAX)",
		"":                    "NVARCHAR(MAX)",
	}
	for in, want := range tests {
		if got := MapType(in); got != want {
			t.Errorf("MapType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	_, err := NewRepository(context.Background(), "sqlserver://host?connection+timeout=notanumber")
	if err == nil || !strings.Contains(err.Error(), "mssql dsn") {
		t.Fatalf("err = %v, want dsn error", err)
	}
}
