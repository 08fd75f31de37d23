package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"custdq/internal/config"
	"custdq/internal/datasource"
	"custdq/internal/output"
	"custdq/internal/parser"
	"custdq/internal/pipeline"
	"custdq/internal/storage"
	"custdq/pkg/records"
)

// batchReport summarizes a completed batch.
type batchReport struct {
	RunID string
	Files output.Files
}

// runBatch reads the configured dataset, validates it and publishes the
// outputs: CSV files first, then every configured sink. A fatal pipeline
// error returns before anything is written.
func runBatch(ctx context.Context, spec config.Pipeline, logger *zap.Logger) (batchReport, error) {
	start := time.Now()

	ds, err := loadDataset(ctx, spec, logger)
	if err != nil {
		return batchReport{}, err
	}

	p, err := pipeline.New(spec, pipeline.Options{Logger: logger})
	if err != nil {
		return batchReport{}, fmt.Errorf("build pipeline: %w", err)
	}
	res, err := p.Run(ctx, ds)
	if err != nil {
		return batchReport{}, err
	}
	log := logger.With(zap.String("run_id", res.RunID.String()))

	accepted, rejected := res.AcceptedTable(), res.RejectedTable()
	w := output.Writer{
		Dir:         spec.Output.Dir,
		Prefix:      spec.Output.Prefix,
		StampLayout: spec.Output.StampLayout,
		TimeLayout:  spec.Output.TimeLayout,
	}
	files, err := w.WriteRun(res.StartedAt, accepted, rejected)
	if err != nil {
		return batchReport{}, fmt.Errorf("write outputs: %w", err)
	}
	log.Info("outputs written",
		zap.String("main", files.Main),
		zap.String("reject", files.Reject),
		zap.Int("main_rows", files.MainRows),
		zap.Int("reject_rows", files.RejectRows),
		zap.String("main_xxh3", fmt.Sprintf("%016x", files.MainDigest)),
	)

	report := batchReport{RunID: res.RunID.String(), Files: files}
	if len(spec.Sinks) > 0 {
		run := storage.Run{ID: report.RunID, Job: spec.Job, Accepted: accepted, Rejected: rejected}
		if err := storage.Publish(ctx, spec.Sinks, spec.Runtime.BatchSize, run, log); err != nil {
			return report, fmt.Errorf("publish sinks: %w", err)
		}
	}

	log.Info("batch completed", zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
	return report, nil
}

// loadDataset returns the built-in sample for the "sample" kind and parses
// the opened source otherwise.
func loadDataset(ctx context.Context, spec config.Pipeline, logger *zap.Logger) (records.Dataset, error) {
	if spec.Source.Kind == "" || spec.Source.Kind == "sample" {
		return records.SampleDataset(), nil
	}
	src, err := datasource.New(spec.Source, logger)
	if err != nil {
		return records.Dataset{}, err
	}
	prs, err := parser.New(spec.Parser)
	if err != nil {
		return records.Dataset{}, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return records.Dataset{}, fmt.Errorf("open source: %w", err)
	}
	defer rc.Close()

	ds, err := prs.Parse(rc)
	if err != nil {
		return records.Dataset{}, fmt.Errorf("parse %s: %w", spec.Parser.Kind, err)
	}
	logger.Debug("dataset loaded",
		zap.String("source", spec.Source.Kind),
		zap.Int("rows", len(ds.Rows)),
		zap.Strings("columns", ds.Columns),
	)
	return ds, nil
}
