//go:build cgo_sqlite

package main

import (
	_ "github.com/mattn/go-sqlite3"
)

// driverName selects the cgo SQLite driver when built with -tags cgo_sqlite.
const driverName = "sqlite3"
