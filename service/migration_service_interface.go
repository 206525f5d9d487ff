package service

import (
	"context"

	"kepka-migrator/models"
)

// MigrationServiceInterface defines the contract for a full migration run
type MigrationServiceInterface interface {
	Run(ctx context.Context) (models.MigrationStats, error)
	Inspect(ctx context.Context) ([]models.SourceRecord, []string, error)
}
