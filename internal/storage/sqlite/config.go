// Package sqlite implements a SQLite-backed storage.Store.
package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:sources.db?cache=shared"
	//   "sources.db" (interpreted by the driver)
	DSN string
}
