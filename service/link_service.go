package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"kepka-migrator/models"
	"kepka-migrator/utils"
)

// LinkService maintains the record <-> file junction collection
type LinkService struct {
	directus    DirectusClientInterface
	collection  string
	recordField string
	fileField   string
	delay       time.Duration
}

// NewLinkService creates a new LinkService for one junction collection
func NewLinkService(directus DirectusClientInterface, collection, recordField, fileField string, delay time.Duration) *LinkService {
	return &LinkService{
		directus:    directus,
		collection:  collection,
		recordField: recordField,
		fileField:   fileField,
		delay:       delay,
	}
}

// Ensure LinkService implements LinkServiceInterface
var _ LinkServiceInterface = (*LinkService)(nil)

// ReconcileLinks replaces every junction entry of recordID with one entry per distinct asset id.
// Existing entries are deleted one by one, then the new ones are created in input order.
// Repeated asset ids are linked once, at their first position, so a gallery listing the
// same image twice gets a single link.
// Nothing here is transactional: a failure part way leaves a partial set until the next run.
// Returns true only if every new link was created.
func (s *LinkService) ReconcileLinks(ctx context.Context, recordID models.ItemID, assetIDs []string) bool {
	logger := log.WithFields(log.Fields{"collection": s.collection, "record_id": recordID})

	s.clearLinks(ctx, recordID)

	success := true
	for i, assetID := range utils.UniqueStrings(assetIDs) {
		if i > 0 {
			if err := utils.Sleep(ctx, s.delay); err != nil {
				logger.WithError(err).Warn("link creation interrupted")
				return false
			}
		}

		payload := map[string]any{
			s.recordField: recordID,
			s.fileField:   assetID,
		}
		if _, err := s.directus.CreateItem(ctx, s.collection, payload); err != nil {
			logger.WithFields(log.Fields{"file_id": assetID, "payload": payloadString(payload)}).WithError(err).Error("❌ failed to link image")
			success = false
			continue
		}
		logger.WithField("file_id", assetID).Debug("linked image")
	}

	return success
}

// clearLinks deletes the current junction entries. Failures are logged and skipped.
func (s *LinkService) clearLinks(ctx context.Context, recordID models.ItemID) {
	logger := log.WithFields(log.Fields{"collection": s.collection, "record_id": recordID})

	existing, err := s.directus.ListItems(ctx, s.collection, s.recordField, recordID.String())
	if err != nil {
		logger.WithError(err).Error("❌ failed to list existing image links")
		return
	}

	for _, link := range existing {
		if err := s.directus.DeleteItem(ctx, s.collection, link.ID); err != nil {
			logger.WithField("link_id", link.ID).WithError(err).Error("❌ failed to delete image link")
			continue
		}
		logger.WithField("link_id", link.ID).Debug("deleted existing image link")
	}
}
