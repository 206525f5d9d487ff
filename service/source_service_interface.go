package service

import (
	"context"

	"kepka-migrator/models"
)

// SourceServiceInterface defines the contract for reading a source collection
type SourceServiceInterface interface {
	FetchRecords(ctx context.Context, kind models.RecordKind) ([]models.SourceRecord, error)
}
