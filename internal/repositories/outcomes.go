package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytspot/internal/models"
	"github.com/desertthunder/ytspot/internal/shared"
)

const outcomeColumns = `id, sequence, run_id, collection, source_id, title, artist, track_id, status, created_at, updated_at`

// OutcomeRepository implements models.Repository[*models.Outcome].
type OutcomeRepository struct {
	db *sql.DB
}

// NewOutcomeRepository creates a new OutcomeRepository with the given database connection
func NewOutcomeRepository(db *sql.DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

// Create inserts an outcome with a generated ID and sequence
func (r *OutcomeRepository) Create(o *models.Outcome) error {
	if err := o.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "outcomes")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	o.SetID(shared.GenerateID())
	o.SetSequence(sequence)

	query := `
		INSERT INTO outcomes (` + outcomeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		o.ID(),
		o.Sequence(),
		o.RunID(),
		o.Collection(),
		o.SourceID(),
		o.Title(),
		o.Artist(),
		o.TrackID(),
		o.Status(),
		o.CreatedAt(),
		o.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outcome: %w", err)
	}

	return nil
}

// Get retrieves an outcome by ID
func (r *OutcomeRepository) Get(id string) (*models.Outcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM outcomes WHERE id = ?`

	o, err := scanOutcome(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("outcome not found: %s", id)
	}
	return o, err
}

// Update rewrites the match fields of an outcome
func (r *OutcomeRepository) Update(o *models.Outcome) error {
	if err := o.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	o.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE outcomes
		SET artist = ?, track_id = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, o.Artist(), o.TrackID(), o.Status(), now, o.ID())
	if err != nil {
		return fmt.Errorf("failed to update outcome: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("outcome not found: %s", o.ID())
	}

	return nil
}

// List retrieves outcomes in the order they were recorded.
//
// Supported criteria: "run_id", "collection" and "status" (string or [models.OutcomeStatus]).
func (r *OutcomeRepository) List(criteria map[string]any) ([]*models.Outcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM outcomes WHERE 1 = 1`
	args := []any{}

	if runID, ok := criteria["run_id"].(string); ok && runID != "" {
		query += " AND run_id = ?"
		args = append(args, runID)
	}

	if collection, ok := criteria["collection"].(string); ok && collection != "" {
		query += " AND collection = ?"
		args = append(args, collection)
	}

	switch status := criteria["status"].(type) {
	case models.OutcomeStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*models.Outcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return outcomes, nil
}

// UnmatchedByRun lists the unmatched outcomes of a run
func (r *OutcomeRepository) UnmatchedByRun(runID string) ([]*models.Outcome, error) {
	return r.List(map[string]any{"run_id": runID, "status": models.OutcomeUnmatched})
}

func scanOutcome(s scanner) (*models.Outcome, error) {
	var (
		id         string
		sequence   int
		runID      string
		collection string
		sourceID   string
		title      string
		artist     string
		trackID    string
		status     string
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := s.Scan(&id, &sequence, &runID, &collection, &sourceID, &title, &artist, &trackID, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan outcome: %w", err)
	}

	return models.RestoreOutcome(id, sequence, runID, collection, sourceID, title, artist, trackID, models.OutcomeStatus(status), createdAt, updatedAt), nil
}
