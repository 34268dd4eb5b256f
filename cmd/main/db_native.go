//go:build !cgo_sqlite

package main

import (
	_ "modernc.org/sqlite"
)

// driverName selects the pure Go SQLite driver.
const driverName = "sqlite"
