// Command custdq validates a batch of customer records, writes the accepted
// rows and a rejection report as CSV, and optionally loads both into
// database sinks.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"custdq/internal/config"
	"custdq/internal/metrics"
	"custdq/internal/metrics/datadog"
	"custdq/internal/metrics/prompush"
	"custdq/pkg/records"

	// every sink backend must be available; the config picks which to use.
	_ "custdq/internal/storage/all"
)

// app holds flag values and the process logger shared by subcommands.
type app struct {
	verbose        bool
	cfgPath        string
	outputDir      string
	schedule       string
	metricsBackend string
	pushgatewayURL string

	env    config.Env
	logger *zap.Logger
}

func main() {
	if err := newRootCmd(&app{}, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app, stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "custdq",
		Short:         "Customer record data-quality batch",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadEnv()
			if err != nil {
				return err
			}
			a.env = env
			if a.logger != nil {
				return nil
			}
			a.logger, err = buildLogger(a.verbose, env.LogLevel)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose (development) logging")

	run := &cobra.Command{
		Use:   "run",
		Short: "Validate one batch (or one per --schedule tick) and write the outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context())
		},
	}
	run.Flags().StringVarP(&a.cfgPath, "config", "c", "", "pipeline config (.json, .yaml); built-in defaults when empty")
	run.Flags().StringVar(&a.outputDir, "output-dir", "", "override output.dir")
	run.Flags().StringVar(&a.schedule, "schedule", "", "cron spec; run repeatedly until interrupted")
	run.Flags().StringVar(&a.metricsBackend, "metrics-backend", "", "pushgateway, datadog or none (overrides METRICS_BACKEND)")
	run.Flags().StringVar(&a.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides PUSHGATEWAY_URL)")

	check := &cobra.Command{
		Use:   "check",
		Short: "Lint a pipeline config and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.loadSpec()
			if err != nil {
				return err
			}
			if err := reportIssues(cmd.ErrOrStderr(), spec); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "configuration is valid: %s\n", displayPath(a.cfgPath))
			return nil
		},
	}
	check.Flags().StringVarP(&a.cfgPath, "config", "c", "", "pipeline config (.json, .yaml)")

	sample := &cobra.Command{
		Use:   "sample",
		Short: "Print the built-in sample dataset as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSample(stdout)
		},
	}

	root.AddCommand(run, check, sample)
	return root
}

func buildLogger(verbose bool, level string) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopmentConfig().Build()
	}
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("CUSTDQ_LOG_LEVEL: %w", err)
		}
		cfg.Level = lvl
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// loadSpec reads --config (or the defaults) and applies env and flag
// overrides, in that order.
func (a *app) loadSpec() (config.Pipeline, error) {
	spec := config.Default()
	if a.cfgPath != "" {
		var err error
		if spec, err = config.Load(a.cfgPath); err != nil {
			return config.Pipeline{}, err
		}
	}
	a.env.Apply(&spec)
	if a.outputDir != "" {
		spec.Output.Dir = a.outputDir
	}
	return spec, nil
}

// reportIssues prints every lint issue and fails when any is an error.
func reportIssues(w io.Writer, spec config.Pipeline) error {
	issues := config.ValidatePipeline(spec)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid")
	}
	return nil
}

func displayPath(p string) string {
	if p == "" {
		return "(defaults)"
	}
	return p
}

func (a *app) run(ctx context.Context) error {
	spec, err := a.loadSpec()
	if err != nil {
		return err
	}
	if err := reportIssues(os.Stderr, spec); err != nil {
		return err
	}

	closeMetrics := a.setupMetrics(spec.Job)
	defer closeMetrics()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := a.logger.With(zap.String("job", spec.Job))
	if a.schedule == "" {
		_, err := runBatch(ctx, spec, log)
		a.flushMetrics()
		return err
	}
	return a.runScheduled(ctx, spec, log)
}

// runScheduled runs one batch per cron tick until ctx is done. A failed
// batch is logged and does not stop the schedule.
func (a *app) runScheduled(ctx context.Context, spec config.Pipeline, log *zap.Logger) error {
	c := cron.New()
	_, err := c.AddFunc(a.schedule, func() {
		if _, err := runBatch(ctx, spec, log); err != nil {
			log.Error("scheduled batch failed", zap.Error(err))
		}
		a.flushMetrics()
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", a.schedule, err)
	}
	log.Info("scheduler started", zap.String("schedule", a.schedule))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("scheduler stopped")
	return nil
}

// setupMetrics installs the selected backend: flag, then env, then none.
// The returned func releases it.
func (a *app) setupMetrics(job string) func() {
	name := a.metricsBackend
	if name == "" {
		name = a.env.MetricsBackend
	}
	switch name {
	case "pushgateway":
		url := a.pushgatewayURL
		if url == "" {
			url = a.env.PushgatewayURL
		}
		if url == "" {
			url = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, url)
		if err != nil {
			a.logger.Warn("metrics: pushgateway backend unavailable; using nop", zap.Error(err))
			return func() {}
		}
		a.logger.Info("metrics enabled", zap.String("backend", name), zap.String("url", url))
		metrics.SetBackend(b)
		return func() { metrics.SetBackend(nil) }

	case "datadog":
		addr := a.env.DatadogAddr
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "custdq.",
			GlobalTags: []string{"job:" + job},
		})
		if err != nil {
			a.logger.Warn("metrics: datadog backend unavailable; using nop", zap.Error(err))
			return func() {}
		}
		a.logger.Info("metrics enabled", zap.String("backend", name), zap.String("addr", addr))
		metrics.SetBackend(b)
		return func() {
			metrics.SetBackend(nil)
			_ = b.Close()
		}

	case "", "none":
		a.logger.Debug("metrics disabled")
		return func() {}

	default:
		a.logger.Warn("metrics: unknown backend; metrics disabled", zap.String("backend", name))
		return func() {}
	}
}

func (a *app) flushMetrics() {
	if err := metrics.Flush(); err != nil {
		a.logger.Warn("metrics: flush failed", zap.Error(err))
	}
}

// writeSample prints the sample dataset with a header row. Missing values
// print as empty cells.
func writeSample(w io.Writer) error {
	ds := records.SampleDataset()
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return err
	}
	for _, r := range ds.Rows {
		rec := make([]string, len(ds.Columns))
		for i, c := range ds.Columns {
			rec[i] = records.FormatCell(r[c], "")
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
