package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"kepka-migrator/config"
	"kepka-migrator/db"
	"kepka-migrator/metrics"
	"kepka-migrator/repository"
	"kepka-migrator/service"
	"kepka-migrator/utils"
)

// App holds the wired migration and the resources to release afterwards
type App struct {
	Config    config.Config
	Migration *service.MigrationService
	Recorder  *metrics.Recorder

	journalDB *sql.DB
}

// Initialize wires every component from the configuration
func Initialize(ctx context.Context, cfg config.Config) (*App, error) {
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	var journal repository.JournalRepositoryInterface
	var journalDB *sql.DB
	if cfg.Journal.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.Journal.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize journal: %w", err)
		}
		journalDB = conn
		journal = repository.NewJournalRepository(conn)
	}

	recorder := metrics.NewRecorder()
	observer := service.NewRunObserver(recorder, journal)

	directus := service.NewDirectusClient(httpClient, cfg.Directus.URL, cfg.Directus.Token)
	source := service.NewStoryblokService(httpClient, cfg.Storyblok)
	optimizer := service.NewImageOptimizer(cfg.Images.MaxWidth, cfg.Images.MaxHeight, cfg.Images.Quality)

	assets := service.NewAssetService(
		httpClient,
		directus,
		optimizer,
		utils.RetryPolicy{MaxRetries: cfg.Migration.MaxRetries, Delay: cfg.Migration.RetryDelay},
		cfg.Images.MaxFileSize,
		cfg.Migration.UploadDelay,
		observer,
	)
	upserts := service.NewUpsertService(directus, cfg.Migration.UpdateExisting)
	links := service.NewLinkService(
		directus,
		cfg.Directus.PhotoshootFiles,
		cfg.Directus.JunctionRecordField,
		cfg.Directus.JunctionFileField,
		cfg.Migration.LinkDelay,
	)

	migration := service.NewMigrationService(source, assets, upserts, links, observer, cfg)

	return &App{
		Config:    cfg,
		Migration: migration,
		Recorder:  recorder,
		journalDB: journalDB,
	}, nil
}

// PushMetrics pushes the run counters when a Pushgateway is configured
func (a *App) PushMetrics(ctx context.Context) {
	if a.Config.Metrics.PushgatewayURL == "" {
		return
	}
	if err := a.Recorder.Push(ctx, a.Config.Metrics.PushgatewayURL, a.Config.Metrics.JobName); err != nil {
		log.WithError(err).Warn("metrics push failed")
		return
	}
	log.WithField("url", a.Config.Metrics.PushgatewayURL).Info("✓ metrics pushed")
}

// Close releases the journal connection
func (a *App) Close() error {
	if a.journalDB != nil {
		return a.journalDB.Close()
	}
	return nil
}
