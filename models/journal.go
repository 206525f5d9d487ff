package models

import "time"

// FailureKind classifies a recorded failure
type FailureKind string

const (
	FailureSourceFetch FailureKind = "source_fetch"
	FailureAsset       FailureKind = "asset"
	FailureUpsert      FailureKind = "upsert"
	FailureLink        FailureKind = "link"
)

// MigrationRun is one row of the run journal
type MigrationRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Stats      MigrationStats
}

// MigrationFailure is an item that needs manual follow-up
type MigrationFailure struct {
	RunID      string
	Kind       FailureKind
	Collection string
	Key        string // slug or asset URL
	Detail     string
	OccurredAt time.Time
}
