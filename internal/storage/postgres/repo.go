// Package postgres implements a Postgres repository using pgx v5. Rows are
// loaded with the COPY protocol through a pgxpool connection.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"custdq/internal/storage"
)

// pool is the subset of *pgxpool.Pool the repository uses.
type pool interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool pool
}

var _ storage.Repository = (*Repository)(nil)

// newPool is a test hook.
var newPool = func(ctx context.Context, dsn string) (pool, error) {
	return pgxpool.New(ctx, dsn)
}

// NewRepository opens a connection pool for dsn.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	p, err := newPool(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: p}, nil
}

// CopyFrom streams rows into table with COPY.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	rows, err := uuidCells(columns, rows)
	if err != nil {
		return 0, err
	}
	n, err := r.pool.CopyFrom(ctx, pgx.Identifier(storage.SplitFQN(table)), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("copy into %s: %s (%s): %w", table, pgErr.Detail, pgErr.SQLState(), err)
		}
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// uuidCells converts textual run_id cells to uuid.UUID. COPY uses the
// binary protocol, which encodes UUID columns from 16-byte values.
func uuidCells(columns []string, rows [][]any) ([][]any, error) {
	idx := slices.Index(columns, storage.RunIDColumn)
	if idx < 0 {
		return rows, nil
	}
	out := make([][]any, len(rows))
	for i, row := range rows {
		var s string
		ok := idx < len(row)
		if ok {
			s, ok = row[idx].(string)
		}
		if !ok {
			out[i] = row
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("row %d: %s %q: %w", i, storage.RunIDColumn, s, err)
		}
		cp := slices.Clone(row)
		cp[idx] = id
		out[i] = cp
	}
	return out, nil
}

// Exec runs a single statement against the pool.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// Close closes the pool.
func (r *Repository) Close() { r.pool.Close() }

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN)
	})
	storage.RegisterDDL("postgres", BuildCreateTableSQL)
}
