package service

import (
	"context"

	"kepka-migrator/models"
)

// UpsertServiceInterface defines the contract for create-or-update by slug
type UpsertServiceInterface interface {
	UpsertRecord(ctx context.Context, collection string, record models.SourceRecord, extra map[string]any) (models.UpsertResult, error)
}
