package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytspot/internal/repositories"
	"github.com/desertthunder/ytspot/internal/shared"
	"github.com/desertthunder/ytspot/internal/tasks"
	"github.com/desertthunder/ytspot/internal/ui"
	"github.com/urfave/cli/v3"
)

// Transfer copies the liked videos and playlists of the YouTube account into new Spotify playlists.
//
// A partial summary is printed even when the run fails part way.
func (r *Runner) Transfer(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.RunOptions{
		SkipFavorites: cmd.Bool("skip-favorites"),
		SkipPlaylists: cmd.Bool("skip-playlists"),
		Playlists:     cmd.StringSlice("playlist"),
		DryRun:        cmd.Bool("dry-run"),
	}
	if opts.SkipFavorites && opts.SkipPlaylists {
		return fmt.Errorf("%w: --skip-favorites and --skip-playlists leave nothing to transfer", shared.ErrInvalidFlag)
	}
	if opts.SkipPlaylists && len(opts.Playlists) > 0 {
		return fmt.Errorf("%w: --playlist cannot be combined with --skip-playlists", shared.ErrInvalidFlag)
	}

	source, err := r.youtubeSource(ctx)
	if err != nil {
		return err
	}
	dest, err := r.spotifyDestination(ctx)
	if err != nil {
		return err
	}

	var recorder tasks.Recorder
	if !cmd.Bool("no-record") {
		if db, err := r.database(); err != nil {
			r.logger.Warn("run report disabled", "error", err)
		} else {
			recorder = repositories.NewReportRecorder(repositories.NewRunRepository(db), repositories.NewOutcomeRepository(db))
		}
	}

	r.logger.Info("starting transfer", "dry_run", opts.DryRun, "skip_favorites", opts.SkipFavorites, "skip_playlists", opts.SkipPlaylists)
	if opts.DryRun {
		r.writePlain("%s\n\n", ui.Styles.Warn("Dry run: no playlists will be created"))
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.printProgress(update)
		}
	}()

	result, err := r.newEngine(source, dest, recorder).Run(ctx, opts, progressCh)
	close(progressCh)
	<-done

	if result != nil {
		r.printSummary(result)
	}
	return err
}

// printProgress prints per-step updates. Updates are best effort, so the totals
// come from printSummary rather than the Finished update.
func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.FetchFavorites, tasks.FetchCollections:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.FetchItems:
		r.writePlain("\n📥 %s\n", update.Message)
	case tasks.CreateCollection:
		r.writePlain("📝 %s\n", update.Message)
	case tasks.MatchTracks:
		r.writePlain("   %s\n", update.Message)
	case tasks.AppendTracks:
		r.writePlain("➕ %s\n", update.Message)
	}
}

func (r *Runner) printSummary(result *tasks.RunResult) {
	totals := result.Totals()

	r.writePlain("\n")
	if result.DryRun {
		r.writePlainHeader("Dry Run Complete")
	} else {
		r.writePlainHeader("Transfer Complete")
	}
	if result.RunID != "" {
		r.writePlain("Run: %s\n", result.RunID)
	}

	for _, c := range result.Collections {
		dest := "(not created)"
		if c.Destination != nil {
			dest = c.Destination.ID
		}
		r.writePlain("%s %s → %s: %d/%d matched", ui.Styles.Check(len(c.Unmatched) == 0), c.Title, dest, len(c.Matched), c.Items)
		if c.Append.Batches > 0 {
			r.writePlain(", %d added", c.Append.Appended)
		}
		if c.Append.FailedBatches > 0 {
			r.writePlain(", %s", ui.Styles.Err(fmt.Sprintf("%d failed batches", c.Append.FailedBatches)))
		}
		r.writePlain("\n")
	}

	r.writePlain("\nPlaylists: %d\n", totals.Collections)
	r.writePlain("Matched:   %d\n", totals.Matched)
	r.writePlain("Unmatched: %s\n", ui.Styles.Count(totals.Unmatched, "tracks"))
	if totals.FailedBatches > 0 {
		r.writePlain("Failed:    %s\n", ui.Styles.Err(fmt.Sprintf("%d batches", totals.FailedBatches)))
	}

	if len(result.Unmatched) > 0 {
		r.writePlain("\nNo match found for:\n")
		for _, u := range result.Unmatched {
			if u.Pair.Artist != "" {
				r.writePlain("  - %s (%s) [%s]\n", u.Track.Title, u.Pair.Artist, u.Collection)
			} else {
				r.writePlain("  - %s [%s]\n", u.Track.Title, u.Collection)
			}
		}
		if result.RunID != "" {
			r.writePlain("\nExport with %s\n", ui.Styles.Help("ytspot report unmatched --run "+result.RunID))
		}
	}
}
