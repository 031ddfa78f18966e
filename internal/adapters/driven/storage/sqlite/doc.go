// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: documents, agencies and their associations
//   - WatermarkStore: the single ingestion cursor
//   - RunHistoryStore: finished pipeline runs
//   - SchedulerStore: scheduled task state
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.regdesk/data/regdesk.db
//
// # Thread Safety
//
// All operations are thread-safe. The store runs in WAL mode so tool reads
// proceed while the pipeline writes. Each document write is one transaction.
package sqlite
