// Package storage contains the backend-agnostic table sink: the Repository
// contract, a factory registry that backends join from init, DDL
// registration, and a batched loader.
//
// Backends live in subpackages (sqlite, postgres, mssql, mysql) and are
// enabled by importing regatta/internal/storage/all.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the minimal interface a table sink backend implements.
type Repository interface {
	// CopyFrom bulk-inserts rows aligned to columns and returns the number
	// of rows the backend reports as written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)

	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// Close releases connections.
	Close()
}

// Config is the backend-neutral repository configuration.
type Config struct {
	Kind    string
	DSN     string
	Table   string
	Columns []string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
