// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories and dialects with the storage package:
//
//   - "postgres" (regatta/internal/storage/postgres)
//   - "mssql"    (regatta/internal/storage/mssql)
//   - "mysql"    (regatta/internal/storage/mysql)
//   - "sqlite"   (regatta/internal/storage/sqlite)
//
// Typical usage, in cmd/competitors/main.go:
//
//	import _ "regatta/internal/storage/all"
//
// A binary that needs only a subset of backends can import those packages
// directly instead.
package all

import (
	_ "regatta/internal/storage/mssql"
	_ "regatta/internal/storage/mysql"
	_ "regatta/internal/storage/postgres"
	_ "regatta/internal/storage/sqlite"
)
