package service

import (
	"context"

	"kepka-migrator/models"
)

// AssetServiceInterface defines the contract for mirroring source assets into the destination
type AssetServiceInterface interface {
	UploadAll(ctx context.Context, urls []string) models.AssetMap
}
