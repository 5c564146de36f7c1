package storage

import (
	"context"
	"fmt"
	"sync"
)

// Dialect builds the backend-specific statements the sink needs. All sink
// columns are text.
type Dialect interface {
	// CreateTable returns an idempotent CREATE TABLE statement.
	CreateTable(table string, columns []string) string
	// DeleteAll returns a statement removing every row of table.
	DeleteAll(table string) string
}

var (
	ddlMu    sync.RWMutex
	dialects = map[string]Dialect{}
)

// RegisterDDL registers (or replaces) the Dialect for kind. Backends call it
// from init next to Register.
func RegisterDDL(kind string, d Dialect) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	dialects[kind] = d
}

func dialectFor(kind string) (Dialect, error) {
	ddlMu.RLock()
	d, ok := dialects[kind]
	ddlMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no DDL registered for storage.kind=%q", kind)
	}
	return d, nil
}

// EnsureTable creates cfg.Table with cfg.Columns if it does not exist.
func EnsureTable(ctx context.Context, cfg Config, repo Repository) error {
	d, err := dialectFor(cfg.Kind)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, d.CreateTable(cfg.Table, cfg.Columns)); err != nil {
		return fmt.Errorf("create table %s: %w", cfg.Table, err)
	}
	return nil
}

// ClearTable deletes all rows from cfg.Table.
func ClearTable(ctx context.Context, cfg Config, repo Repository) error {
	d, err := dialectFor(cfg.Kind)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, d.DeleteAll(cfg.Table)); err != nil {
		return fmt.Errorf("clear table %s: %w", cfg.Table, err)
	}
	return nil
}
