// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:entries.db?_pragma=busy_timeout(5000)"
	//   "entries.db"
	DSN string

	// Table is the target table name, e.g. "competitors". A schema prefix
	// such as "main.competitors" is accepted.
	Table string

	// Columns is the ordered list of destination columns.
	Columns []string
}
