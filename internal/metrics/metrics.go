// Package metrics records operational metrics of validation runs through a
// pluggable Backend.
//
// The global backend defaults to a no-op implementation, so the pipeline can
// always call the Record helpers. Concrete systems live in subpackages
// (prompush for a Prometheus Pushgateway, datadog for DogStatsD) and are
// installed by the CLI with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the Record helpers.
const (
	StepTotal       = "custdq_step_total"
	StepDuration    = "custdq_step_duration_seconds"
	RowsTotal       = "custdq_rows_total"
	RejectionsTotal = "custdq_rejections_total"
	RunsTotal       = "custdq_runs_total"
	BatchesTotal    = "custdq_sink_batches_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes buffered metrics. It is called once per run.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil restores the no-op
// backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of a pipeline step and observes its
// duration, labelled with success or failure.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds delta rows of the given kind ("input", "accepted",
// "rejected", "entries", "loaded"). Non-positive deltas are ignored.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordRejection counts rows rejected for one reason label.
func RecordRejection(job, reason string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RejectionsTotal, float64(delta), Labels{"job": job, "reason": reason})
}

// RecordRun counts a finished run by outcome ("ok", "fatal", "error").
func RecordRun(job, outcome string) {
	current().IncCounter(RunsTotal, 1, Labels{"job": job, "outcome": outcome})
}

// RecordBatches counts sink insert batches.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}
