package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytspot/internal/models"
	"github.com/desertthunder/ytspot/internal/shared"
)

const runColumns = `id, sequence, status, dry_run, collections, matched, unmatched, failed_batches, error, finished_at, created_at, updated_at`

// RunRepository implements models.Repository[*models.Run].
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run with a generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID(),
		run.Sequence(),
		run.Status(),
		run.DryRun(),
		run.Collections(),
		run.Matched(),
		run.Unmatched(),
		run.FailedBatches(),
		run.ErrorMessage(),
		run.FinishedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	return scanRun(r.db.QueryRow(query, id))
}

// Latest retrieves the most recent run
func (r *RunRepository) Latest() (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY sequence DESC LIMIT 1`
	return scanRun(r.db.QueryRow(query))
}

// Update writes the status and counters of a run
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET status = ?, collections = ?, matched = ?, unmatched = ?, failed_batches = ?, error = ?, finished_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.Status(),
		run.Collections(),
		run.Matched(),
		run.Unmatched(),
		run.FailedBatches(),
		run.ErrorMessage(),
		run.FinishedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.ID())
	}

	return nil
}

// List retrieves runs, newest first.
//
// Supported criteria: "status" (string or [models.RunStatus]), "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1 = 1`
	args := []any{}

	switch status := criteria["status"].(type) {
	case models.RunStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanner is satisfied by [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		id            string
		sequence      int
		status        string
		dryRun        bool
		collections   int
		matched       int
		unmatched     int
		failedBatches int
		errMsg        string
		finishedAt    sql.NullTime
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := s.Scan(&id, &sequence, &status, &dryRun, &collections, &matched, &unmatched, &failedBatches, &errMsg, &finishedAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	var finished *time.Time
	if finishedAt.Valid {
		finished = &finishedAt.Time
	}

	return models.RestoreRun(id, sequence, models.RunStatus(status), dryRun, collections, matched, unmatched, failedBatches, errMsg, finished, createdAt, updatedAt), nil
}
