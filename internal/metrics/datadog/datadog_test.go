package datadog

import (
	"reflect"
	"testing"

	"regatta/internal/metrics"
)

type call struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	calls  []call
	closed bool
}

func (f *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"histogram", name, value, tags})
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("NewBackend(empty addr) error = nil")
	}
	b, err := NewBackend(Config{Addr: "127.0.0.1:8125", Namespace: "regatta.", GlobalTags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

func TestBackend_ForwardsToClient(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.RecordsTotal, 2.6, metrics.Labels{"kind": "written", "job": "xmas"})
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, metrics.Labels{"step": "write"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := []call{
		{"count", metrics.RecordsTotal, 3, []string{"job:xmas", "kind:written"}},
		{"histogram", metrics.StepDurationSeconds, 0.25, []string{"step:write"}},
	}
	if !reflect.DeepEqual(fc.calls, want) {
		t.Fatalf("calls = %+v\nwant %+v", fc.calls, want)
	}
	if !fc.closed {
		t.Fatalf("Flush did not close the client")
	}
}

func TestBackend_NilClient(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	if got := labelsToTags(nil); got != nil {
		t.Fatalf("labelsToTags(nil) = %v; want nil", got)
	}
	got := labelsToTags(metrics.Labels{"step": "read", "job": "xmas", "status": "success"})
	want := []string{"job:xmas", "status:success", "step:read"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("labelsToTags = %v; want %v", got, want)
	}
}
