package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"powersim/domain/core"
	"powersim/domain/result"
	"powersim/ports"
)

// runRepository implements the RunStore interface over PostgreSQL
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) ports.RunStore {
	return &runRepository{db: db}
}

// SaveRun inserts a finished run and its replication results
func (r *runRepository) SaveRun(ctx context.Context, record result.RunRecord) error {
	reportJSON, err := json.Marshal(record.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO simulation_runs (id, created_at, spec, report)
		 VALUES ($1, $2, $3, $4)`,
		record.ID.String(), record.CreatedAt.Time(), record.SpecJSON, reportJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO replication_results
		 (run_id, index, seed, point, lower, upper, prob_mass, width, failed, failure_reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, res := range record.Results {
		_, err = stmt.ExecContext(ctx,
			record.ID.String(), res.Index, res.Seed, res.Point, res.Lower, res.Upper,
			res.ProbMass, res.Width, res.Failed, res.FailureReason,
		)
		if err != nil {
			return fmt.Errorf("failed to insert result %d: %w", res.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run with its full result sequence
func (r *runRepository) GetRun(ctx context.Context, id core.RunID) (*result.RunRecord, error) {
	record := result.RunRecord{ID: id}
	var reportJSON []byte
	var createdAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT created_at, spec, report FROM simulation_runs WHERE id = $1`,
		id.String(),
	).Scan(&createdAt, &record.SpecJSON, &reportJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if createdAt.Valid {
		record.CreatedAt = core.NewTimestamp(createdAt.Time)
	}
	if err := json.Unmarshal(reportJSON, &record.Report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	err = r.db.SelectContext(ctx, &record.Results,
		`SELECT index, seed, point, lower, upper, prob_mass, width, failed,
		        COALESCE(failure_reason, '') AS failure_reason
		 FROM replication_results WHERE run_id = $1 ORDER BY index`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	return &record, nil
}

// ListRuns returns recent runs without their result sequences
func (r *runRepository) ListRuns(ctx context.Context, limit, offset int) ([]result.RunRecord, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT id, created_at, spec, report FROM simulation_runs
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	records := make([]result.RunRecord, 0, limit)
	for rows.Next() {
		var record result.RunRecord
		var id string
		var createdAt sql.NullTime
		var reportJSON []byte
		if err := rows.Scan(&id, &createdAt, &record.SpecJSON, &reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.ID = core.RunID(id)
		if createdAt.Valid {
			record.CreatedAt = core.NewTimestamp(createdAt.Time)
		}
		if err := json.Unmarshal(reportJSON, &record.Report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
