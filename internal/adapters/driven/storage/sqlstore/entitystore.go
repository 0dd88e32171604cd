package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
)

// CatalogTable is the name of the entity registry table.
const CatalogTable = "entity_registry"

const catalogDDL = `
	CREATE TABLE IF NOT EXISTS entity_registry (
		name TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		table_name TEXT NOT NULL,
		config TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)
`

// entityStore implements driven.EntityStore.
type entityStore struct {
	store *Store
}

var _ driven.EntityStore = (*entityStore)(nil)

// EnsureCatalog creates the entity_registry table if needed.
func (s *entityStore) EnsureCatalog(ctx context.Context) error {
	if err := s.store.checkWritable(); err != nil {
		return err
	}
	if _, err := s.store.db.ExecContext(ctx, catalogDDL); err != nil {
		return fmt.Errorf("creating entity catalog: %w", err)
	}
	return nil
}

// ReadOnly reports whether writes are rejected.
func (s *entityStore) ReadOnly() bool {
	return s.store.readOnly
}

// Save inserts or overwrites an entry, keeping the original created_at.
func (s *entityStore) Save(ctx context.Context, meta domain.EntityMetadata) error {
	if err := s.store.checkWritable(); err != nil {
		return err
	}
	config := meta.Config
	if config == nil {
		config = map[string]any{}
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	now := time.Now().UTC()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, s.store.db.Rebind(`
		INSERT INTO entity_registry (name, kind, table_name, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			kind = excluded.kind,
			table_name = excluded.table_name,
			config = excluded.config,
			updated_at = excluded.updated_at
	`), meta.Name, string(meta.Kind), meta.TableName, string(configJSON), meta.CreatedAt, meta.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving entity %s: %w", meta.Name, err)
	}
	return nil
}

// Get retrieves an entry by name.
func (s *entityStore) Get(ctx context.Context, name string) (*domain.EntityMetadata, error) {
	row := s.store.db.QueryRowContext(ctx, s.store.db.Rebind(`
		SELECT name, kind, table_name, config, created_at, updated_at
		FROM entity_registry WHERE name = ?
	`), name)

	meta, err := scanEntity(row)
	if err == nil {
		return meta, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if errors.Is(err, domain.ErrMalformedEntry) {
		return nil, err
	}
	if exists, existsErr := s.store.tableExists(ctx, CatalogTable); existsErr == nil && !exists {
		return nil, domain.ErrNotFound
	}
	return nil, fmt.Errorf("getting entity %s: %w", name, err)
}

// List returns entries ordered by name; empty when the catalog is missing.
func (s *entityStore) List(ctx context.Context, kind domain.EntityKind) ([]domain.EntityMetadata, error) {
	exists, err := s.store.tableExists(ctx, CatalogTable)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []domain.EntityMetadata{}, nil
	}

	query := `SELECT name, kind, table_name, config, created_at, updated_at FROM entity_registry`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY name`

	rows, err := s.store.db.QueryContext(ctx, s.store.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	entities := []domain.EntityMetadata{}
	for rows.Next() {
		meta, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, *meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return entities, nil
}

// Delete removes an entry.
func (s *entityStore) Delete(ctx context.Context, name string) error {
	if err := s.store.checkWritable(); err != nil {
		return err
	}
	res, err := s.store.db.ExecContext(ctx, s.store.db.Rebind("DELETE FROM entity_registry WHERE name = ?"), name)
	if err != nil {
		if exists, existsErr := s.store.tableExists(ctx, CatalogTable); existsErr == nil && !exists {
			return domain.ErrNotFound
		}
		return fmt.Errorf("deleting entity %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting entity %s: %w", name, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntity decodes one catalog row. Rows with an unknown kind or an
// undecodable config are reported as domain.ErrMalformedEntry.
func scanEntity(row rowScanner) (*domain.EntityMetadata, error) {
	var meta domain.EntityMetadata
	var kind, configJSON sql.NullString
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&meta.Name, &kind, &meta.TableName, &configJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning entity: %w", err)
	}

	meta.Kind = domain.EntityKind(kind.String)
	if !meta.Kind.Valid() {
		return nil, fmt.Errorf("%w: entity %q has kind %q", domain.ErrMalformedEntry, meta.Name, kind.String)
	}
	if configJSON.Valid && configJSON.String != "" {
		if err := json.Unmarshal([]byte(configJSON.String), &meta.Config); err != nil {
			return nil, fmt.Errorf("%w: entity %q config: %v", domain.ErrMalformedEntry, meta.Name, err)
		}
	}
	if createdAt.Valid {
		meta.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		meta.UpdatedAt = updatedAt.Time
	}
	return &meta, nil
}
