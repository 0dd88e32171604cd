// Package sqlstore provides a relational implementation of the driven store ports.
//
// Two engines are supported behind the same code:
//
//   - SQLite through modernc.org/sqlite, a pure Go implementation that requires
//     no CGO. This is the default; the database lives in the data directory.
//   - PostgreSQL through the pgx stdlib driver, selected with a DSN.
//
// Statements are written with '?' placeholders and rebound per engine by sqlx.
// A single Store exposes:
//
//   - EntityStore: the entity_registry catalog
//   - TableStore: physical entity tables (bulk writes, reads, queries)
//   - ImportRunStore: the import_runs log
//
// # Schema
//
// Bookkeeping tables are managed through versioned migrations stored in the
// migrations/ directory. The catalog table is created on demand by
// EnsureCatalog so that a read-only store never needs to write.
//
// # Data Location
//
// By default, the SQLite database is stored at ~/.loam/data/loam.db
package sqlstore
