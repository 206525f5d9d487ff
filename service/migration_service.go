package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"kepka-migrator/config"
	"kepka-migrator/models"
	"kepka-migrator/utils"
)

// MigrationService runs the source -> destination migration:
// fetch, upload distinct assets once, upsert records, then relink photoshoot galleries.
// Implements MigrationServiceInterface
type MigrationService struct {
	source   SourceServiceInterface
	assets   AssetServiceInterface
	upserts  UpsertServiceInterface
	links    LinkServiceInterface
	observer *RunObserver
	cfg      config.Config
}

// NewMigrationService creates a new MigrationService
func NewMigrationService(
	source SourceServiceInterface,
	assets AssetServiceInterface,
	upserts UpsertServiceInterface,
	links LinkServiceInterface,
	observer *RunObserver,
	cfg config.Config,
) *MigrationService {
	return &MigrationService{
		source:   source,
		assets:   assets,
		upserts:  upserts,
		links:    links,
		observer: observer,
		cfg:      cfg,
	}
}

// Ensure MigrationService implements MigrationServiceInterface
var _ MigrationServiceInterface = (*MigrationService)(nil)

// Run executes one migration pass. Only a failed photoshoot fetch aborts the run;
// every other failure is logged, counted and skipped.
func (s *MigrationService) Run(ctx context.Context) (models.MigrationStats, error) {
	var stats models.MigrationStats
	s.observer.Start(ctx)

	log.WithFields(log.Fields{
		"run_id":           s.observer.RunID(),
		"directus":         s.cfg.Directus.URL,
		"process_artworks": s.cfg.Migration.ProcessArtworks,
		"max_images":       s.cfg.Migration.MaxImagesPerPhotoshoot,
		"update_existing":  s.cfg.Migration.UpdateExisting,
	}).Info("🔄 starting Storyblok to Directus migration")

	artworks, photoshoots, err := s.fetch(ctx)
	if err != nil {
		s.observer.Finish(ctx, stats)
		return stats, err
	}
	stats.Fetched = len(artworks) + len(photoshoots)

	urls := collectAssetURLs(artworks, photoshoots)
	stats.AssetsTotal = len(urls)
	log.WithField("count", len(urls)).Info("📦 collected unique image URLs")

	uploaded := s.assets.UploadAll(ctx, urls)
	stats.Uploaded = len(uploaded)
	if stats.AssetsFailed() > 0 {
		log.WithField("failed", stats.AssetsFailed()).Warn("some images failed to upload, see errors above")
	}

	if s.cfg.Migration.ProcessArtworks {
		s.migrateArtworks(ctx, artworks, uploaded, &stats)
	}
	s.migratePhotoshoots(ctx, photoshoots, uploaded, &stats)

	s.observer.Finish(ctx, stats)

	log.WithFields(log.Fields{
		"fetched":       stats.Fetched,
		"uploaded":      stats.Uploaded,
		"created":       stats.Created,
		"updated":       stats.Updated,
		"failed":        stats.Failed,
		"link_failures": stats.LinkFailures,
	}).Info("🎉 migration finished")
	return stats, ctx.Err()
}

// Inspect fetches and normalizes the collections without writing anything.
// Returns the records (photoshoots already capped) and the distinct asset URLs.
func (s *MigrationService) Inspect(ctx context.Context) ([]models.SourceRecord, []string, error) {
	artworks, photoshoots, err := s.fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	records := append(artworks, photoshoots...)
	return records, collectAssetURLs(artworks, photoshoots), nil
}

// fetch reads both collections and applies the per-photoshoot image cap
func (s *MigrationService) fetch(ctx context.Context) ([]models.SourceRecord, []models.SourceRecord, error) {
	var artworks []models.SourceRecord
	if s.cfg.Migration.ProcessArtworks {
		records, err := s.source.FetchRecords(ctx, models.KindArtwork)
		if err != nil {
			// artworks are optional: continue with an empty collection
			log.WithField("collection", models.KindArtwork).WithError(err).Error("❌ failed to fetch artwork data")
			s.observer.SourceFailed(ctx, models.KindArtwork, err)
		} else {
			artworks = records
		}
	}

	photoshoots, err := s.source.FetchRecords(ctx, models.KindPhotoshoot)
	if err != nil {
		log.WithField("collection", models.KindPhotoshoot).WithError(err).Error("❌ failed to fetch photoshoot data, exiting")
		s.observer.SourceFailed(ctx, models.KindPhotoshoot, err)
		return nil, nil, fmt.Errorf("fetch photoshoots: %w", err)
	}

	for i := range photoshoots {
		before := len(photoshoots[i].AssetRefs)
		if dropped := photoshoots[i].TruncateAssets(s.cfg.Migration.MaxImagesPerPhotoshoot); dropped > 0 {
			log.WithFields(log.Fields{
				"slug": photoshoots[i].Slug,
				"from": before,
				"to":   len(photoshoots[i].AssetRefs),
			}).Info("limiting photoshoot images")
		}
	}

	s.observer.Fetched(models.KindArtwork, len(artworks))
	s.observer.Fetched(models.KindPhotoshoot, len(photoshoots))
	log.Infof("found %d artworks and %d photoshoots", len(artworks), len(photoshoots))
	return artworks, photoshoots, nil
}

func (s *MigrationService) migrateArtworks(ctx context.Context, artworks []models.SourceRecord, uploaded models.AssetMap, stats *models.MigrationStats) {
	collection := s.cfg.Directus.ArtworksCollection
	log.WithField("count", len(artworks)).Info("creating artwork items")

	for i, artwork := range artworks {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			if err := utils.Sleep(ctx, s.cfg.Migration.ArtworkDelay); err != nil {
				return
			}
		}

		extra := map[string]any{}
		ids, missing := uploaded.Resolve(artwork.AssetRefs)
		if len(ids) > 0 {
			extra[s.cfg.Directus.ArtworkCoverField] = ids[0]
		} else if len(missing) > 0 {
			log.WithFields(log.Fields{"slug": artwork.Slug, "url": missing[0]}).Warn("skipping cover link, image upload failed")
		}

		result, err := s.upserts.UpsertRecord(ctx, collection, artwork, extra)
		if err != nil {
			stats.Failed++
			s.observer.ItemFailed(ctx, collection, artwork.Slug, err)
			continue
		}
		s.countUpsert(collection, result, stats)
	}
}

// migratePhotoshoots upserts each photoshoot and then rebuilds its junction links.
// A photoshoot with no uploaded images is upserted but its links are not touched,
// so links left by an earlier run stay in place rather than being cleared.
func (s *MigrationService) migratePhotoshoots(ctx context.Context, photoshoots []models.SourceRecord, uploaded models.AssetMap, stats *models.MigrationStats) {
	collection := s.cfg.Directus.PhotoshootsCollection
	log.WithField("count", len(photoshoots)).Info("creating/updating photoshoot items")

	for i, shoot := range photoshoots {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			if err := utils.Sleep(ctx, s.cfg.Migration.PhotoshootDelay); err != nil {
				return
			}
		}

		fileIDs, missing := uploaded.Resolve(shoot.AssetRefs)
		for _, url := range missing {
			log.WithFields(log.Fields{"slug": shoot.Slug, "url": url}).Warn("image not found for photoshoot")
		}

		result, err := s.upserts.UpsertRecord(ctx, collection, shoot, nil)
		if err != nil {
			stats.Failed++
			s.observer.ItemFailed(ctx, collection, shoot.Slug, err)
			continue
		}
		s.countUpsert(collection, result, stats)

		if len(fileIDs) == 0 {
			log.WithField("slug", shoot.Slug).Info("no images to link for photoshoot")
			continue
		}

		log.WithFields(log.Fields{"slug": shoot.Slug, "id": result.ID, "count": len(fileIDs)}).Info("linking images to photoshoot")
		ok := s.links.ReconcileLinks(ctx, result.ID, fileIDs)
		if !ok {
			stats.LinkFailures++
		}
		s.observer.LinksReconciled(ctx, collection, shoot.Slug, ok)
	}
}

func (s *MigrationService) countUpsert(collection string, result models.UpsertResult, stats *models.MigrationStats) {
	if result.Created {
		stats.Created++
	} else {
		stats.Updated++
	}
	s.observer.ItemUpserted(collection, result)
}

// collectAssetURLs returns every distinct asset URL, artworks first, in first-seen order
func collectAssetURLs(artworks, photoshoots []models.SourceRecord) []string {
	var all []string
	for _, r := range artworks {
		all = append(all, r.AssetRefs...)
	}
	for _, r := range photoshoots {
		all = append(all, r.AssetRefs...)
	}
	return utils.UniqueStrings(all)
}
