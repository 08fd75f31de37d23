package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"custdq/internal/storage"
)

type fakePool struct {
	table  pgx.Identifier
	cols   []string
	rows   [][]any
	execs  []string
	err    error
	closed bool
}

func (f *fakePool) CopyFrom(_ context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.table, f.cols = table, cols
	for src.Next() {
		v, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.rows = append(f.rows, v)
	}
	return int64(len(f.rows)), nil
}

func (f *fakePool) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (f *fakePool) Close() { f.closed = true }

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(storage.RejectedTableDef("dq.rejected"))
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := `CREATE TABLE IF NOT EXISTS "dq"."rejected" (
  "run_id" UUID NOT NULL,
  "customer_id" TEXT,
  "name" TEXT,
  "email" TEXT,
  "country" TEXT,
  "rejection_reasons" TEXT NOT NULL,
  "rejection_timestamp" TIMESTAMPTZ NOT NULL
);`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("DDL mismatch (-want +got):\n%s", diff)
	}
}

// TestRepository_CopyFrom drives the registered "postgres" factory against a
// fake pool. Not parallel: it swaps the package-level newPool hook.
func TestRepository_CopyFrom(t *testing.T) {
	fp := &fakePool{}
	orig := newPool
	newPool = func(context.Context, string) (pool, error) { return fp, nil }
	t.Cleanup(func() { newPool = orig })

	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: "postgres://x"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	runID := "8f9a6c1e-0000-4000-8000-000000000001"
	n, err := repo.CopyFrom(ctx, "dq.accepted", []string{"run_id", "customer_id"}, [][]any{{runID, int64(1)}, {runID, int64(5)}})
	if err != nil || n != 2 {
		t.Fatalf("CopyFrom = %d, %v", n, err)
	}
	if diff := cmp.Diff([]any{uuid.MustParse(runID), int64(5)}, fp.rows[1]); diff != "" {
		t.Fatalf("row (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(pgx.Identifier{"dq", "accepted"}, fp.table); diff != "" {
		t.Fatalf("identifier (-want +got):\n%s", diff)
	}
	if err := repo.Exec(ctx, "SELECT 1"); err != nil || len(fp.execs) != 1 {
		t.Fatalf("Exec: %v %v", err, fp.execs)
	}
	repo.Close()
	if !fp.closed {
		t.Fatal("pool not closed")
	}
}

func TestRepository_CopyFromError(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23502", Detail: "null value in column"}
	repo := &Repository{pool: &fakePool{err: pgErr}}
	_, err := repo.CopyFrom(context.Background(), "t", []string{"a"}, [][]any{{nil}})
	if !errors.As(err, new(*pgconn.PgError)) {
		t.Fatalf("err = %v, want wrapped PgError", err)
	}
}

func TestUUIDCells(t *testing.T) {
	t.Parallel()

	in := [][]any{{"x", "not-a-uuid"}}
	if _, err := uuidCells([]string{"name", "run_id"}, in); err == nil {
		t.Fatal("expected parse error")
	}
	out, err := uuidCells([]string{"name"}, in)
	if err != nil || &out[0][0] != &in[0][0] {
		t.Fatalf("rows without run_id should pass through: %v", err)
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
