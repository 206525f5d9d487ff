package repository

import (
	"context"

	"kepka-migrator/models"
)

// JournalRepositoryInterface defines the contract for the run journal
type JournalRepositoryInterface interface {
	StartRun(ctx context.Context, run models.MigrationRun) error
	RecordFailure(ctx context.Context, failure models.MigrationFailure) error
	FinishRun(ctx context.Context, run models.MigrationRun) error
}
