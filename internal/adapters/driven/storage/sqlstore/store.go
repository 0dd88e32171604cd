package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/loam/internal/adapters/driven/storage/sqlstore/migrations"
	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
)

// DatabaseFile is the SQLite file name inside the data directory.
const DatabaseFile = "loam.db"

// Store is a relational store that provides access to all store
// interfaces through wrapper types.
type Store struct {
	db       *sqlx.DB
	dialect  dialect
	path     string
	readOnly bool
}

// Open opens the store described by settings.
func Open(settings domain.StoreSettings) (*Store, error) {
	switch settings.Driver {
	case domain.StoreDriverSQLite, "":
		return openSQLite(settings.DataDir, settings.ReadOnly)
	case domain.StoreDriverPostgres:
		return openPostgres(settings.DSN, settings.ReadOnly)
	default:
		return nil, fmt.Errorf("%w: store driver %q", domain.ErrUnsupportedType, settings.Driver)
	}
}

// NewStore creates a writable SQLite store in dataDir.
// If dataDir is empty, defaults to ~/.loam/data.
func NewStore(dataDir string) (*Store, error) {
	return openSQLite(dataDir, false)
}

// NewWithDB wraps an existing connection. Migrations are not run.
func NewWithDB(db *sql.DB, driver domain.StoreDriver, readOnly bool) (*Store, error) {
	d, ok := dialectFor(driver)
	if !ok {
		return nil, fmt.Errorf("%w: store driver %q", domain.ErrUnsupportedType, driver)
	}
	return &Store{
		db:       sqlx.NewDb(db, d.driverName),
		dialect:  d,
		readOnly: readOnly,
	}, nil
}

func openSQLite(dataDir string, readOnly bool) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".loam", "data")
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)"
	if readOnly {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("opening read-only database: %w", err)
		}
		dsn += "&mode=ro"
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open(sqliteDialect.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps transactions and DDL on one SQLite handle.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:       db,
		dialect:  sqliteDialect,
		path:     dbPath,
		readOnly: readOnly,
	}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func openPostgres(dsn string, readOnly bool) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres store requires a DSN", domain.ErrInvalidInput)
	}
	db, err := sqlx.Open(postgresDialect.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{
		db:       db,
		dialect:  postgresDialect,
		path:     redactDSN(dsn),
		readOnly: readOnly,
	}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if s.readOnly {
		return nil
	}
	if err := s.migrate(migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path, or the redacted DSN for PostgreSQL.
func (s *Store) Path() string {
	return s.path
}

// Driver returns the engine backing the store.
func (s *Store) Driver() domain.StoreDriver {
	return s.dialect.driver
}

// ReadOnly reports whether the store was opened without write access.
func (s *Store) ReadOnly() bool {
	return s.readOnly
}

// EntityStore returns an EntityStore interface backed by this store.
func (s *Store) EntityStore() driven.EntityStore {
	return &entityStore{store: s}
}

// TableStore returns a TableStore interface backed by this store.
func (s *Store) TableStore() driven.TableStore {
	return &tableStore{store: s}
}

// ImportRunStore returns an ImportRunStore interface backed by this store.
func (s *Store) ImportRunStore() driven.ImportRunStore {
	return &importRunStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_import_runs.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(s.db.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) tableExists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(s.dialect.tableExistsQuery), table); err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}
	return n > 0, nil
}

func (s *Store) checkWritable() error {
	if s.readOnly {
		return domain.ErrReadOnly
	}
	return nil
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// redactDSN hides the password of a URL-style DSN.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.IndexByte(creds, ':'); i >= 0 {
		creds = creds[:i] + ":***"
	}
	return dsn[:scheme+3] + creds + dsn[at:]
}
