package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ytspot/internal/formatter"
	"github.com/desertthunder/ytspot/internal/models"
	"github.com/desertthunder/ytspot/internal/repositories"
	"github.com/desertthunder/ytspot/internal/shared"
	"github.com/urfave/cli/v3"
)

// ReportRuns lists recorded runs, newest first.
func (r *Runner) ReportRuns(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	if limit < 1 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidFlag)
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	runs, err := repositories.NewRunRepository(db).List(map[string]any{"limit": limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet\n")
	}
	return formatter.RunsToText(r.output, runs)
}

// ReportUnmatched exports the unmatched items of a run, the latest one by default.
func (r *Runner) ReportUnmatched(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	runs := repositories.NewRunRepository(db)
	var run *models.Run
	if id := cmd.String("run"); id != "" {
		run, err = runs.Get(id)
	} else {
		run, err = runs.Latest()
	}
	if errors.Is(err, shared.ErrRunNotFound) {
		return fmt.Errorf("%w: run `ytspot transfer` first or pass a valid --run", err)
	}
	if err != nil {
		return err
	}

	outcomes, err := repositories.NewOutcomeRepository(db).UnmatchedByRun(run.ID())
	if err != nil {
		return err
	}

	data, err := formatter.Unmatched(cmd.String("format"), run, outcomes)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	output := cmd.String("output")
	if err := formatter.WriteReport(r.output, output, data); err != nil {
		return err
	}
	if output != "" {
		r.logger.Info("report written", "path", output, "unmatched", len(outcomes))
	}
	return nil
}
