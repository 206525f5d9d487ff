package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS migration_runs (
	id           UUID PRIMARY KEY,
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ,
	fetched      INTEGER NOT NULL DEFAULT 0,
	assets_total INTEGER NOT NULL DEFAULT 0,
	uploaded     INTEGER NOT NULL DEFAULT 0,
	created      INTEGER NOT NULL DEFAULT 0,
	updated      INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	link_failures INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS migration_failures (
	id          BIGSERIAL PRIMARY KEY,
	run_id      UUID NOT NULL REFERENCES migration_runs(id),
	kind        TEXT NOT NULL,
	collection  TEXT NOT NULL,
	item_key    TEXT NOT NULL,
	detail      TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
);
`

// Open connects to the journal database and makes sure the tables exist
func Open(ctx context.Context, connStr string) (*sql.DB, error) {
	if connStr == "" {
		return nil, fmt.Errorf("journal database URL is empty")
	}

	conn, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create journal tables: %w", err)
	}

	log.Info("✓ journal database connection established")
	return conn, nil
}
