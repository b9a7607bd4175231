package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytspot/internal/models"
	"github.com/desertthunder/ytspot/internal/tasks"
)

// ReportRecorder implements tasks.Recorder on top of [RunRepository] and [OutcomeRepository].
type ReportRecorder struct {
	runs     *RunRepository
	outcomes *OutcomeRepository
}

var _ tasks.Recorder = (*ReportRecorder)(nil)

// NewReportRecorder creates a new ReportRecorder with the given repositories
func NewReportRecorder(runs *RunRepository, outcomes *OutcomeRepository) *ReportRecorder {
	return &ReportRecorder{runs: runs, outcomes: outcomes}
}

// Begin stores a running [models.Run] and returns its id.
func (r *ReportRecorder) Begin(ctx context.Context, dryRun bool) (string, error) {
	run := models.NewRun(0, dryRun)
	if err := r.runs.Create(run); err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return run.ID(), nil
}

// Record stores one outcome.
func (r *ReportRecorder) Record(ctx context.Context, o *models.Outcome) error {
	return r.outcomes.Create(o)
}

// Finish stores the final counters. A non-nil runErr marks the run failed.
func (r *ReportRecorder) Finish(ctx context.Context, runID string, totals tasks.Totals, runErr error) error {
	run, err := r.runs.Get(runID)
	if err != nil {
		return err
	}
	run.Finish(totals.Collections, totals.Matched, totals.Unmatched, totals.FailedBatches, runErr)
	return r.runs.Update(run)
}
