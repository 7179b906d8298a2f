package sqlstore

import (
	// DriverPostgres
	_ "github.com/lib/pq"
	// DriverSQLite3, requires cgo
	_ "github.com/mattn/go-sqlite3"
	// DriverSQLite, pure Go
	_ "modernc.org/sqlite"
)
