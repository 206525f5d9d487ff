package service

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"kepka-migrator/models"
)

const slugField = "slug"

// UpsertService creates destination records or updates the one already holding the slug
type UpsertService struct {
	directus       DirectusClientInterface
	updateExisting bool
}

// NewUpsertService creates a new UpsertService.
// With updateExisting false no lookup happens and every call creates a record.
func NewUpsertService(directus DirectusClientInterface, updateExisting bool) *UpsertService {
	return &UpsertService{
		directus:       directus,
		updateExisting: updateExisting,
	}
}

// Ensure UpsertService implements UpsertServiceInterface
var _ UpsertServiceInterface = (*UpsertService)(nil)

// UpsertRecord looks the record up by slug and patches it, or creates it.
// When several destination records share the slug the first one returned is updated;
// the others are left untouched.
// extra carries asset fields (e.g. the artwork cover); callers leave a field out of extra
// when its asset is not available, so it is never sent as null.
func (s *UpsertService) UpsertRecord(ctx context.Context, collection string, record models.SourceRecord, extra map[string]any) (models.UpsertResult, error) {
	logger := log.WithFields(log.Fields{"collection": collection, "slug": record.Slug})

	if s.updateExisting {
		existing, err := s.findBySlug(ctx, collection, record.Slug)
		if err != nil {
			logger.WithError(err).Error("❌ slug lookup failed")
			return models.UpsertResult{}, fmt.Errorf("lookup %s/%s: %w", collection, record.Slug, err)
		}

		if existing != nil {
			payload := buildPayload(record, extra, false)
			if _, err := s.directus.UpdateItem(ctx, collection, existing.ID, payload); err != nil {
				logger.WithFields(log.Fields{"id": existing.ID, "payload": payloadString(payload)}).WithError(err).Error("❌ update failed")
				return models.UpsertResult{}, fmt.Errorf("update %s/%s: %w", collection, existing.ID, err)
			}
			logger.WithField("id", existing.ID).Infof("updated existing item '%s'", record.Title)
			return models.UpsertResult{ID: existing.ID, Created: false}, nil
		}
	}

	payload := buildPayload(record, extra, true)
	created, err := s.directus.CreateItem(ctx, collection, payload)
	if err != nil {
		logger.WithField("payload", payloadString(payload)).WithError(err).Error("❌ create failed")
		return models.UpsertResult{}, fmt.Errorf("create %s/%s: %w", collection, record.Slug, err)
	}

	logger.WithField("id", created.ID).Infof("created item '%s'", record.Title)
	return models.UpsertResult{ID: created.ID, Created: true}, nil
}

// findBySlug returns the first item with the slug, or nil when there is none
func (s *UpsertService) findBySlug(ctx context.Context, collection, slug string) (*models.Item, error) {
	items, err := s.directus.ListItems(ctx, collection, slugField, slug)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	if len(items) > 1 {
		log.WithFields(log.Fields{
			"collection": collection,
			"slug":       slug,
			"matches":    len(items),
			"using":      items[0].ID,
		}).Warn("slug is not unique in destination, using first match")
	}
	return &items[0], nil
}

// buildPayload maps a record to destination fields. The slug is only written on create.
func buildPayload(record models.SourceRecord, extra map[string]any, withSlug bool) map[string]any {
	payload := map[string]any{
		"title":        record.Title,
		"description":  record.Description,
		"date_created": record.CreatedAt,
	}
	if withSlug {
		payload[slugField] = record.Slug
	}
	for k, v := range extra {
		if v == nil {
			continue
		}
		payload[k] = v
	}
	return payload
}

func payloadString(payload map[string]any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(b)
}
