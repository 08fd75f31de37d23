package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"custdq/internal/metrics"
)

// readCounterValue reads the current value of a Counter for assertions in tests.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("job", ""); err == nil {
		t.Fatalf("missing gateway URL should fail")
	}
	b, err := NewBackend("", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.jobName != "custdq" {
		t.Fatalf("jobName = %q, want default custdq", b.jobName)
	}
}

// TestIncCounter verifies that IncCounter routes each metric name to its
// collector and ignores unknown names.
func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("custdq", "http://example.com")
	if err != nil {
		t.Fatal(err)
	}

	b.IncCounter(metrics.StepTotal, 2, metrics.Labels{"step": "validate", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 7, metrics.Labels{"kind": "input"})
	b.IncCounter(metrics.RejectionsTotal, 3, metrics.Labels{"reason": "invalid email"})
	b.IncCounter(metrics.RunsTotal, 1, metrics.Labels{"outcome": "ok"})
	b.IncCounter(metrics.BatchesTotal, 4, nil)
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	checks := []struct {
		name string
		c    prometheus.Counter
		want float64
	}{
		{"step", b.stepCounter.WithLabelValues("validate", "success"), 2},
		{"rows", b.rowCounter.WithLabelValues("input"), 7},
		{"rejections", b.rejectionCounter.WithLabelValues("invalid email"), 3},
		{"runs", b.runCounter.WithLabelValues("ok"), 1},
		{"batches", b.batchCounter, 4},
		{"untouched", b.rowCounter.WithLabelValues("accepted"), 0},
	}
	for _, c := range checks {
		if got := readCounterValue(t, c.c); got != c.want {
			t.Fatalf("%s counter = %v, want %v", c.name, got, c.want)
		}
	}
}

// TestZeroBackendIsSafe ensures a zero Backend ignores every call.
func TestZeroBackendIsSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "s", "status": "ok"})
	b.IncCounter(metrics.RejectionsTotal, 1, metrics.Labels{"reason": "r"})
	b.IncCounter(metrics.BatchesTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDuration, 1, metrics.Labels{})
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("custdq", "http://example.com")
	if err != nil {
		t.Fatal(err)
	}
	b.ObserveHistogram(metrics.StepDuration, 1.5, metrics.Labels{"step": "write", "status": "success"})
	b.ObserveHistogram("other_metric", 2, metrics.Labels{"step": "write", "status": "success"})

	m := &dto.Metric{}
	if err := b.stepDuration.WithLabelValues("write", "success").(prometheus.Metric).Write(m); err != nil {
		t.Fatal(err)
	}
	if s := m.GetSummary(); s.GetSampleCount() != 1 || s.GetSampleSum() != 1.5 {
		t.Fatalf("summary count=%d sum=%v", s.GetSampleCount(), s.GetSampleSum())
	}
}

// TestFlush verifies that Flush PUTs the registry to the gateway under the
// job grouping path.
func TestFlush(t *testing.T) {
	t.Parallel()

	var hits int32
	var body atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Method != http.MethodPut || !strings.HasSuffix(r.URL.Path, "/metrics/job/nightly") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		body.Store(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("nightly", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	b.IncCounter(metrics.RowsTotal, 7, metrics.Labels{"kind": "input"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected one push, got %d", hits)
	}
	if got, _ := body.Load().([]byte); len(got) == 0 {
		t.Fatalf("push body is empty")
	}
}
