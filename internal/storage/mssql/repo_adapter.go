// Package mssql provides an MSSQL-backed storage.Repository implementation.
// This adapter wires the MSSQL backend into the storage-agnostic factory.
package mssql

import (
	"context"
	"fmt"
	"strings"

	"regatta/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:     cfg.DSN,
			Table:   cfg.Table,
			Columns: cfg.Columns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("mssql", dialect{})
}

// wrappedRepo adapts *mssql.Repository to storage.Repository and provides Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() { w.closeFn() }

// dialect implements storage.Dialect for SQL Server. Text columns are
// NVARCHAR(MAX).
type dialect struct{}

func (dialect) CreateTable(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = msIdent(c) + " NVARCHAR(MAX) NOT NULL DEFAULT N''"
	}
	return fmt.Sprintf("IF OBJECT_ID(%s, N'U') IS NULL CREATE TABLE %s (%s)",
		msString(table), msFQN(table), strings.Join(defs, ", "))
}

func (dialect) DeleteAll(table string) string {
	return "DELETE FROM " + msFQN(table)
}
