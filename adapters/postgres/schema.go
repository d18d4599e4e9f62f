package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema statements, applied in order. Kept idempotent so EnsureSchema
// can run on every boot.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS simulation_runs (
		id         TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		spec       JSONB,
		report     JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS replication_results (
		run_id         TEXT NOT NULL REFERENCES simulation_runs(id) ON DELETE CASCADE,
		index          INTEGER NOT NULL,
		seed           BIGINT NOT NULL,
		point          DOUBLE PRECISION NOT NULL DEFAULT 0,
		lower          DOUBLE PRECISION NOT NULL DEFAULT 0,
		upper          DOUBLE PRECISION NOT NULL DEFAULT 0,
		prob_mass      DOUBLE PRECISION NOT NULL DEFAULT 0,
		width          DOUBLE PRECISION NOT NULL DEFAULT 0,
		failed         BOOLEAN NOT NULL DEFAULT false,
		failure_reason TEXT,
		PRIMARY KEY (run_id, index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON simulation_runs (created_at DESC)`,
}

// EnsureSchema creates the tables if they do not exist
func EnsureSchema(db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
