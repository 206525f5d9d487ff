package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"kepka-migrator/metrics"
	"kepka-migrator/models"
	"kepka-migrator/repository"
)

// MetricsRecorderInterface defines the counters updated during a run
type MetricsRecorderInterface interface {
	RecordsFetched(collection string, n int)
	ItemProcessed(collection, result string)
	AssetProcessed(result string)
	LinksReconciled(collection, result string)
	Completed()
}

// RunObserver forwards run events to the metrics recorder and, when configured, the journal.
// Journal write errors are logged and never fail the run.
type RunObserver struct {
	metrics MetricsRecorderInterface
	journal repository.JournalRepositoryInterface
	run     models.MigrationRun
	now     func() time.Time
}

// NewRunObserver creates a RunObserver with a fresh run id. journal may be nil.
func NewRunObserver(recorder MetricsRecorderInterface, journal repository.JournalRepositoryInterface) *RunObserver {
	return &RunObserver{
		metrics: recorder,
		journal: journal,
		run:     models.MigrationRun{ID: uuid.NewString()},
		now:     time.Now,
	}
}

// Ensure RunObserver implements AssetEvents
var _ AssetEvents = (*RunObserver)(nil)

func (o *RunObserver) RunID() string {
	return o.run.ID
}

func (o *RunObserver) Start(ctx context.Context) {
	o.run.StartedAt = o.now()
	if o.journal == nil {
		return
	}
	if err := o.journal.StartRun(ctx, o.run); err != nil {
		log.WithError(err).Warn("journal: could not record run start")
		// without the run row the failure rows cannot reference it
		o.journal = nil
	}
}

func (o *RunObserver) Fetched(kind models.RecordKind, n int) {
	o.metrics.RecordsFetched(string(kind), n)
}

func (o *RunObserver) SourceFailed(ctx context.Context, kind models.RecordKind, err error) {
	o.fail(ctx, models.FailureSourceFetch, string(kind), string(kind), err)
}

func (o *RunObserver) AssetUploaded(ctx context.Context, url, fileID string) {
	o.metrics.AssetProcessed(metrics.ResultUploaded)
}

func (o *RunObserver) AssetFailed(ctx context.Context, url string, err error) {
	o.metrics.AssetProcessed(metrics.ResultFailed)
	o.fail(ctx, models.FailureAsset, "files", url, err)
}

func (o *RunObserver) ItemUpserted(collection string, result models.UpsertResult) {
	if result.Created {
		o.metrics.ItemProcessed(collection, metrics.ResultCreated)
	} else {
		o.metrics.ItemProcessed(collection, metrics.ResultUpdated)
	}
}

func (o *RunObserver) ItemFailed(ctx context.Context, collection, slug string, err error) {
	o.metrics.ItemProcessed(collection, metrics.ResultFailed)
	o.fail(ctx, models.FailureUpsert, collection, slug, err)
}

func (o *RunObserver) LinksReconciled(ctx context.Context, collection, slug string, ok bool) {
	if ok {
		o.metrics.LinksReconciled(collection, metrics.ResultLinked)
		return
	}
	o.metrics.LinksReconciled(collection, metrics.ResultFailed)
	o.fail(ctx, models.FailureLink, collection, slug, nil)
}

// Finish stamps the completion metric and stores the final counters
func (o *RunObserver) Finish(ctx context.Context, stats models.MigrationStats) {
	o.metrics.Completed()

	finished := o.now()
	o.run.FinishedAt = &finished
	o.run.Stats = stats
	if o.journal == nil {
		return
	}
	if err := o.journal.FinishRun(ctx, o.run); err != nil {
		log.WithError(err).Warn("journal: could not record run summary")
	}
}

func (o *RunObserver) fail(ctx context.Context, kind models.FailureKind, collection, key string, cause error) {
	if o.journal == nil {
		return
	}
	detail := "one or more links could not be created"
	if cause != nil {
		detail = cause.Error()
	}
	failure := models.MigrationFailure{
		RunID:      o.run.ID,
		Kind:       kind,
		Collection: collection,
		Key:        key,
		Detail:     detail,
		OccurredAt: o.now(),
	}
	if err := o.journal.RecordFailure(ctx, failure); err != nil {
		log.WithFields(log.Fields{"kind": kind, "key": key}).WithError(err).Warn("journal: could not record failure")
	}
}
