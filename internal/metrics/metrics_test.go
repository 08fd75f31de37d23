package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	histograms []histCall
	flushes    int
}

type counterCall struct {
	Name   string
	Delta  float64
	Labels Labels
}

type histCall struct {
	Name   string
	Value  float64
	Labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	SetBackend(fb)
	t.Cleanup(func() { SetBackend(nil) })
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordStep("custdq", "preflight", nil, 2*time.Second)
	RecordStep("custdq", "write", errors.New("disk full"), 1500*time.Millisecond)

	want := []counterCall{
		{StepTotal, 1, Labels{"job": "custdq", "step": "preflight", "status": "success"}},
		{StepTotal, 1, Labels{"job": "custdq", "step": "write", "status": "failure"}},
	}
	if diff := cmp.Diff(want, fb.counters); diff != "" {
		t.Fatalf("counters (-want +got):\n%s", diff)
	}
	if len(fb.histograms) != 2 || fb.histograms[0].Value != 2 || fb.histograms[1].Value != 1.5 {
		t.Fatalf("histograms = %+v", fb.histograms)
	}
}

func TestRecordRowsRejectionsRunsAndBatches(t *testing.T) {
	fb := install(t)

	RecordRow("j", "input", 7)
	RecordRow("j", "accepted", 0) // ignored
	RecordRejection("j", "invalid email", 2)
	RecordRejection("j", "Invalid country", -1) // ignored
	RecordRun("j", "fatal")
	RecordBatches("j", 3)

	want := []counterCall{
		{RowsTotal, 7, Labels{"job": "j", "kind": "input"}},
		{RejectionsTotal, 2, Labels{"job": "j", "reason": "invalid email"}},
		{RunsTotal, 1, Labels{"job": "j", "outcome": "fatal"}},
		{BatchesTotal, 3, Labels{"job": "j"}},
	}
	if diff := cmp.Diff(want, fb.counters); diff != "" {
		t.Fatalf("counters (-want +got):\n%s", diff)
	}

	if err := Flush(); err != nil || fb.flushes != 1 {
		t.Fatalf("Flush err=%v flushes=%d", err, fb.flushes)
	}
}

func TestSetBackendNilRestoresNop(t *testing.T) {
	install(t)
	SetBackend(nil)
	if _, ok := current().(nopBackend); !ok {
		t.Fatalf("backend = %T, want nopBackend", current())
	}
	RecordStep("j", "s", nil, time.Millisecond)
}
