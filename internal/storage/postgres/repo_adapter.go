// Package postgres registers the Postgres backend with the storage factory at
// init time, so callers obtain a Repository via storage.New without importing
// this package directly.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"regatta/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo adds Close to *Repository so it satisfies storage.Repository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// dialect implements storage.Dialect for Postgres.
type dialect struct{}

func (dialect) CreateTable(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " TEXT NOT NULL DEFAULT ''"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", splitFQN(table).Sanitize(), strings.Join(defs, ", "))
}

func (dialect) DeleteAll(table string) string {
	return "TRUNCATE TABLE " + splitFQN(table).Sanitize()
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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
	storage.RegisterDDL("postgres", dialect{})
}
