package service

import (
	"context"

	"kepka-migrator/models"
)

// DirectusClientInterface defines the contract for destination CMS operations
type DirectusClientInterface interface {
	UploadFile(ctx context.Context, fileName, contentType string, data []byte) (string, error)
	ListItems(ctx context.Context, collection, field, value string) ([]models.Item, error)
	CreateItem(ctx context.Context, collection string, payload map[string]any) (models.Item, error)
	UpdateItem(ctx context.Context, collection string, id models.ItemID, payload map[string]any) (models.Item, error)
	DeleteItem(ctx context.Context, collection string, id models.ItemID) error
}
