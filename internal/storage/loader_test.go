package storage

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
)

func makeRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{i, "x"}
	}
	return rows
}

// TestLoadBatches_Basic verifies rows are grouped into batches and copyFn is
// called with the expected counts.
func TestLoadBatches_Basic(t *testing.T) {
	t.Parallel()

	var (
		calls int32
		sizes []int
	)
	copyFn := func(_ context.Context, cols []string, rows [][]any) (int64, error) {
		atomic.AddInt32(&calls, 1)
		sizes = append(sizes, len(rows))
		if !reflect.DeepEqual(cols, []string{"c1", "c2"}) {
			t.Errorf("columns = %v", cols)
		}
		return int64(len(rows)), nil
	}

	total, err := LoadBatches(context.Background(), []string{"c1", "c2"}, makeRows(7), 3, copyFn)
	if err != nil {
		t.Fatalf("LoadBatches error: %v", err)
	}
	if total != 7 {
		t.Fatalf("total rows %d, want 7", total)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("copyFn calls %d, want 3 (3+3+1)", got)
	}
	if !reflect.DeepEqual(sizes, []int{3, 3, 1}) {
		t.Fatalf("batch sizes %v, want [3 3 1]", sizes)
	}
}

func TestLoadBatches_NoRows(t *testing.T) {
	t.Parallel()

	called := false
	copyFn := func(context.Context, []string, [][]any) (int64, error) {
		called = true
		return 0, nil
	}
	total, err := LoadBatches(context.Background(), []string{"c"}, nil, 10, copyFn)
	if err != nil || total != 0 || called {
		t.Fatalf("total=%d err=%v called=%v; want 0, nil, false", total, err, called)
	}
}

// TestLoadBatches_ErrorPropagation ensures the first copy error is propagated
// and processing stops after that batch.
func TestLoadBatches_ErrorPropagation(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("copy failed")
	var batches int
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		batches++
		if batches == 2 {
			return 0, wantErr
		}
		return int64(len(rows)), nil
	}

	total, err := LoadBatches(context.Background(), []string{"c"}, makeRows(6), 2, copyFn)
	if !errors.Is(err, wantErr) {
		t.Fatalf("want error %v, got %v", wantErr, err)
	}
	if total != 2 {
		t.Fatalf("total rows %d, want 2", total)
	}
	if batches != 2 {
		t.Fatalf("batches %d, want 2", batches)
	}
}

func TestLoadBatches_BadArgs(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, []string, [][]any) (int64, error) { return 0, nil }
	if _, err := LoadBatches(context.Background(), nil, nil, 0, noop); err == nil {
		t.Fatalf("batchSize=0: want error")
	}
	if _, err := LoadBatches(context.Background(), nil, nil, 1, nil); err == nil {
		t.Fatalf("nil copyFn: want error")
	}
}

// TestLoadBatches_ContextCancel checks the loader stops before the next batch
// once the context is canceled.
func TestLoadBatches_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		calls++
		cancel()
		return int64(len(rows)), nil
	}

	total, err := LoadBatches(ctx, []string{"c"}, makeRows(5), 2, copyFn)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v; want context.Canceled", err)
	}
	if calls != 1 || total != 2 {
		t.Fatalf("calls=%d total=%d; want 1, 2", calls, total)
	}
}

// recordingRepo remembers statements and copied rows.
type recordingRepo struct {
	mu     sync.Mutex
	execs  []string
	rows   [][]any
	closed bool
}

func (r *recordingRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rows...)
	return int64(len(rows)), nil
}

func (r *recordingRepo) Exec(_ context.Context, sql string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execs = append(r.execs, sql)
	return nil
}

func (r *recordingRepo) Close() { r.closed = true }

type fakeDialect struct{}

func (fakeDialect) CreateTable(table string, cols []string) string {
	return "CREATE " + table
}
func (fakeDialect) DeleteAll(table string) string { return "DELETE " + table }

func TestLoad_PreparesTableAndCloses(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{}
	Register("loadfake", func(context.Context, Config) (Repository, error) { return repo, nil })
	RegisterDDL("loadfake", fakeDialect{})

	cfg := Config{Kind: "loadfake", Table: "competitors", Columns: []string{"sail_no"}}
	n, err := Load(context.Background(), cfg, LoadOptions{BatchSize: 2, AutoCreateTable: true, Replace: true}, makeRows(3))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 3 || len(repo.rows) != 3 {
		t.Fatalf("loaded %d (repo has %d); want 3", n, len(repo.rows))
	}
	if want := []string{"CREATE competitors", "DELETE competitors"}; !reflect.DeepEqual(repo.execs, want) {
		t.Fatalf("execs = %v; want %v", repo.execs, want)
	}
	if !repo.closed {
		t.Fatalf("repository not closed")
	}
}

func TestLoad_MissingDialect(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{}
	Register("loadnoddl", func(context.Context, Config) (Repository, error) { return repo, nil })

	_, err := Load(context.Background(), Config{Kind: "loadnoddl", Table: "t"}, LoadOptions{BatchSize: 1, AutoCreateTable: true}, makeRows(1))
	if err == nil {
		t.Fatalf("Load error = nil; want missing DDL error")
	}
	if len(repo.rows) != 0 {
		t.Fatalf("rows copied despite DDL failure")
	}
	if !repo.closed {
		t.Fatalf("repository not closed on error")
	}
}

func TestLoad_UnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := Load(context.Background(), Config{Kind: "nope"}, LoadOptions{BatchSize: 1}, nil); err == nil {
		t.Fatalf("Load error = nil; want unsupported kind")
	}
}
