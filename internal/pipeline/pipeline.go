// Package pipeline runs one validation batch: preflight, normalization, row
// rules, rejection aggregation and the final assembly check.
//
// The pipeline only consumes a config.Pipeline and an in-memory dataset; it
// reads no flags or environment and writes no files. Fatal outcomes are
// returned as typed errors matching ErrFatal.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"custdq/internal/config"
	"custdq/internal/metrics"
	"custdq/internal/reject"
	"custdq/internal/schema"
	"custdq/internal/transformer"
	"custdq/internal/transformer/builtin"
	"custdq/pkg/records"
)

// Options carries the collaborators a Pipeline may be given.
type Options struct {
	Logger *zap.Logger

	// Now stamps the run and its rejection entries. Defaults to time.Now.
	Now func() time.Time

	// NewRunID defaults to uuid.New.
	NewRunID func() uuid.UUID
}

// Pipeline is a configured, reusable validation run.
type Pipeline struct {
	job       string
	schema    schema.Schema
	normalize builtin.Normalize
	validator transformer.Validator

	logger   *zap.Logger
	now      func() time.Time
	newRunID func() uuid.UUID
}

// New builds a Pipeline from cfg. The rule list is compiled once here.
func New(cfg config.Pipeline, opts Options) (*Pipeline, error) {
	s := cfg.Schema.Build()
	rules, err := builtin.Rules(s, cfg.Rules)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		job:       cfg.Job,
		schema:    s,
		normalize: builtin.Normalize{Schema: s, Upper: cfg.Normalize.UpperFields},
		validator: transformer.Validator{Rules: rules, Parallel: cfg.Runtime.ParallelRules},
		logger:    opts.Logger,
		now:       opts.Now,
		newRunID:  opts.NewRunID,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newRunID == nil {
		p.newRunID = uuid.New
	}
	return p, nil
}

// Run validates ds. On success the Result partitions every input row into
// the accepted set or exactly one rejection entry.
func (p *Pipeline) Run(ctx context.Context, ds records.Dataset) (res *Result, err error) {
	runID := p.newRunID()
	started := p.now()
	log := p.logger.With(zap.String("run_id", runID.String()), zap.String("job", p.job))

	defer func() {
		outcome := "ok"
		switch {
		case errors.Is(err, ErrFatal):
			outcome = "fatal"
		case err != nil:
			outcome = "error"
		}
		metrics.RecordRun(p.job, outcome)
	}()

	log.Info("run started", zap.Int("rows", len(ds.Rows)), zap.Int("columns", len(ds.Columns)))
	metrics.RecordRow(p.job, "input", int64(len(ds.Rows)))

	if err := p.step(log, "preflight", func() error { return Preflight(p.schema, ds) }); err != nil {
		log.Error("preflight failed", zap.Error(err))
		return nil, err
	}

	var rows []records.Customer
	_ = p.step(log, "normalize", func() error {
		rows = p.normalize.Apply(ds)
		return nil
	})

	var out transformer.Outcome
	if err := p.step(log, "validate", func() error {
		var err error
		out, err = p.validator.Run(ctx, rows)
		return err
	}); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	countReasons(p.job, out.Rejections)

	var entries []records.RejectionEntry
	_ = p.step(log, "aggregate", func() error {
		entries = reject.Aggregator{Now: p.now, Logger: log}.Fold(out.Rejections)
		return nil
	})

	if err := p.step(log, "assemble", func() error {
		var aerr error
		res, aerr = Assemble(len(rows), out.Accepted, entries)
		return aerr
	}); err != nil {
		log.Error("run aborted", zap.Error(err))
		return nil, err
	}
	res.RunID = runID
	res.StartedAt = started

	metrics.RecordRow(p.job, "accepted", int64(len(res.Accepted)))
	metrics.RecordRow(p.job, "rejected", int64(len(rows)-len(res.Accepted)))
	metrics.RecordRow(p.job, "entries", int64(len(res.Rejected)))
	log.Info("run validated",
		zap.Int("accepted", len(res.Accepted)),
		zap.Int("rejection_entries", len(res.Rejected)))
	return res, nil
}

// step times fn and records it.
func (p *Pipeline) step(log *zap.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordStep(p.job, name, err, d)
	log.Debug("step done", zap.String("step", name), zap.Duration("took", d), zap.Error(err))
	return err
}

func countReasons(job string, rj []transformer.Rejection) {
	counts := map[string]int64{}
	var order []string
	for _, r := range rj {
		if counts[r.Reason] == 0 {
			order = append(order, r.Reason)
		}
		counts[r.Reason]++
	}
	for _, reason := range order {
		metrics.RecordRejection(job, reason, counts[reason])
	}
}
