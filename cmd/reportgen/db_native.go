//go:build !cgo_sqlite

package main

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// openDB uses the pure-Go sqlite driver so cross-compiled builds need no C
// toolchain. Build with -tags cgo_sqlite for the cgo driver.
func openDB(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path)
}
