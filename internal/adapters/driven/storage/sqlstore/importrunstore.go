package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
)

// importRunStore implements driven.ImportRunStore.
type importRunStore struct {
	store *Store
}

var _ driven.ImportRunStore = (*importRunStore)(nil)

type importRunRow struct {
	ID         string       `db:"id"`
	ConfigPath string       `db:"config_path"`
	Status     string       `db:"status"`
	Summary    string       `db:"summary"`
	Error      string       `db:"error"`
	StartedAt  sql.NullTime `db:"started_at"`
	FinishedAt sql.NullTime `db:"finished_at"`
}

func (r importRunRow) toDomain() domain.ImportRun {
	run := domain.ImportRun{
		ID:         r.ID,
		ConfigPath: r.ConfigPath,
		Status:     domain.ImportRunStatus(r.Status),
		Summary:    r.Summary,
		Error:      r.Error,
	}
	if r.StartedAt.Valid {
		run.StartedAt = r.StartedAt.Time
	}
	if r.FinishedAt.Valid {
		run.FinishedAt = r.FinishedAt.Time
	}
	return run
}

// Save inserts or updates a run.
func (s *importRunStore) Save(ctx context.Context, run domain.ImportRun) error {
	if err := s.store.checkWritable(); err != nil {
		return err
	}
	var finished sql.NullTime
	if !run.FinishedAt.IsZero() {
		finished = sql.NullTime{Time: run.FinishedAt, Valid: true}
	}
	_, err := s.store.db.ExecContext(ctx, s.store.db.Rebind(`
		INSERT INTO import_runs (id, config_path, status, summary, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			summary = excluded.summary,
			error = excluded.error,
			finished_at = excluded.finished_at
	`), run.ID, run.ConfigPath, string(run.Status), run.Summary, run.Error, run.StartedAt, finished)
	if err != nil {
		return fmt.Errorf("saving import run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *importRunStore) Get(ctx context.Context, id string) (*domain.ImportRun, error) {
	var row importRunRow
	err := s.store.db.GetContext(ctx, &row, s.store.db.Rebind(`
		SELECT id, config_path, status, summary, error, started_at, finished_at
		FROM import_runs WHERE id = ?
	`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting import run: %w", err)
	}
	run := row.toDomain()
	return &run, nil
}

// List returns the most recent runs first.
func (s *importRunStore) List(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	query := `SELECT id, config_path, status, summary, error, started_at, finished_at
		FROM import_runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []importRunRow
	if err := s.store.db.SelectContext(ctx, &rows, s.store.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing import runs: %w", err)
	}
	runs := make([]domain.ImportRun, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, r.toDomain())
	}
	return runs, nil
}
