package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"custdq/internal/config"
	"custdq/internal/metrics"
	"custdq/pkg/records"
)

// Run is what a sink persists for one pipeline run.
type Run struct {
	ID       string
	Job      string
	Accepted records.Table
	Rejected records.Table
}

// Publish writes run to every sink. Failures of individual sinks do not stop
// the others; their errors are joined.
func Publish(ctx context.Context, sinks []config.Sink, batchSize int, run Run, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var errs []error
	for i, s := range sinks {
		log := logger.With(zap.String("sink", s.Kind), zap.Int("index", i))
		if err := publishOne(ctx, s, batchSize, run, log); err != nil {
			errs = append(errs, fmt.Errorf("sinks[%d] (%s): %w", i, s.Kind, err))
			continue
		}
		log.Info("sink loaded",
			zap.String("accepted_table", s.AcceptedTable),
			zap.String("rejected_table", s.RejectedTable),
		)
	}
	return errors.Join(errs...)
}

func publishOne(ctx context.Context, s config.Sink, batchSize int, run Run, log *zap.Logger) error {
	repo, err := New(ctx, Config{Kind: s.Kind, DSN: s.DSN})
	if err != nil {
		return err
	}
	defer repo.Close()

	targets := []struct {
		def   TableDef
		table records.Table
	}{
		{AcceptedTableDef(s.AcceptedTable), run.Accepted},
		{RejectedTableDef(s.RejectedTable), run.Rejected},
	}
	for _, tg := range targets {
		if s.AutoCreate {
			if err := EnsureTable(ctx, s.Kind, repo, tg.def); err != nil {
				return err
			}
		}
		rows := WithRunID(run.ID, tg.table.Rows)
		copyFn := func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
			n, err := repo.CopyFrom(ctx, tg.def.FQN, cols, batch)
			if err == nil {
				metrics.RecordBatches(run.Job, 1)
			}
			return n, err
		}
		n, err := LoadBatches(ctx, tg.def.ColumnNames(), rows, batchSize, copyFn, log)
		if err != nil {
			return fmt.Errorf("load %s: %w", tg.def.FQN, err)
		}
		log.Debug("table loaded", zap.String("table", tg.def.FQN), zap.Int64("rows", n))
	}
	return nil
}

// WithRunID prefixes every row with id.
func WithRunID(id string, rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		row := make([]any, 0, len(r)+1)
		row = append(row, id)
		out[i] = append(row, r...)
	}
	return out
}
