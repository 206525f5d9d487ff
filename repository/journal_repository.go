package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kepka-migrator/models"
)

// JournalRepository stores run summaries and failures in Postgres
type JournalRepository struct {
	db *sql.DB
}

// NewJournalRepository creates a new JournalRepository
func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Ensure JournalRepository implements JournalRepositoryInterface
var _ JournalRepositoryInterface = (*JournalRepository)(nil)

// StartRun inserts the run row
func (r *JournalRepository) StartRun(ctx context.Context, run models.MigrationRun) error {
	query := `INSERT INTO migration_runs (id, started_at) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, run.ID, run.StartedAt); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

// RecordFailure inserts one failure row
func (r *JournalRepository) RecordFailure(ctx context.Context, failure models.MigrationFailure) error {
	query := `
		INSERT INTO migration_failures (run_id, kind, collection, item_key, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		failure.RunID,
		string(failure.Kind),
		failure.Collection,
		failure.Key,
		failure.Detail,
		failure.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert failure for %s: %w", failure.Key, err)
	}
	return nil
}

// FinishRun stores the final counters
func (r *JournalRepository) FinishRun(ctx context.Context, run models.MigrationRun) error {
	query := `
		UPDATE migration_runs
		SET finished_at = $2, fetched = $3, assets_total = $4, uploaded = $5,
		    created = $6, updated = $7, failed = $8, link_failures = $9
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.FinishedAt,
		run.Stats.Fetched,
		run.Stats.AssetsTotal,
		run.Stats.Uploaded,
		run.Stats.Created,
		run.Stats.Updated,
		run.Stats.Failed,
		run.Stats.LinkFailures,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}
