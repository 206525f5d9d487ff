package service

import (
	"context"

	"kepka-migrator/models"
)

// LinkServiceInterface defines the contract for replacing a record's junction entries
type LinkServiceInterface interface {
	ReconcileLinks(ctx context.Context, recordID models.ItemID, assetIDs []string) bool
}
