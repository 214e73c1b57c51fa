// Package trace provides transparent SQL tracing for modernc.org/sqlite.
//
// It registers a "sqlite-trace" driver that wraps the standard "sqlite"
// driver, intercepting every Exec and Query at the database/sql/driver
// level. No application code changes are needed beyond switching the
// driver name:
//
//	import "github.com/hazyhaar/lector/trace"
//
//	// Trace store (opened with the raw "sqlite" driver to avoid recursion)
//	traceDB, _ := sql.Open("sqlite", "traces.db")
//	store := trace.NewStore(traceDB)
//	store.Init()
//	trace.SetStore(store)
//
//	// Application DB, traced from here on
//	db, _ := sql.Open("sqlite-trace", "lector.db")
//
// Without a Store (SetStore not called or nil), the driver still logs every
// query via slog with adaptive levels (Debug, Warn >100ms, Error on failure).
// Trace IDs are read from context via kit.GetTraceID for request correlation.
package trace

import (
	"database/sql"
	"sync"

	sqlite "modernc.org/sqlite"
)

// Entry is a single SQL trace record.
type Entry struct {
	TraceID    string // correlation with the HTTP/MCP request
	Op         string // "Exec" or "Query"
	Query      string // SQL statement
	DurationUs int64  // microseconds
	Error      string // empty if success
	Timestamp  int64  // unix microseconds
}

// global store for persistence (nil = slog-only, no SQLite persistence)
var (
	globalStore *Store
	storeMu     sync.RWMutex
)

// SetStore sets the global trace store for persistence.
// Pass nil to disable persistence (slog-only mode).
func SetStore(s *Store) {
	storeMu.Lock()
	globalStore = s
	storeMu.Unlock()
}

func getStore() *Store {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return globalStore
}

func init() {
	sql.Register("sqlite-trace", &TracingDriver{
		Driver: &sqlite.Driver{},
	})
}
