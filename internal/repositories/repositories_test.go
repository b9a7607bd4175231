package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytspot/internal/models"
	"github.com/desertthunder/ytspot/internal/shared"
	"github.com/desertthunder/ytspot/internal/tasks"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func createRun(t *testing.T, repo *RunRepository, dryRun bool) *models.Run {
	t.Helper()
	run := models.NewRun(0, dryRun)
	if err := repo.Create(run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	return run
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "runs")
		if err != nil {
			t.Fatalf("NextSequence() error = %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := createRun(t, repo, false)

		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := createRun(t, repo, true)

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.ID() != run.ID() || got.Status() != models.RunRunning || !got.DryRun() {
			t.Errorf("unexpected run: id=%s status=%s dry=%v", got.ID(), got.Status(), got.DryRun())
		}
		if got.FinishedAt() != nil {
			t.Error("running run should not have a finish time")
		}
	})

	t.Run("Get not found", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := createRun(t, repo, false)

		run.Finish(2, 10, 3, 1, errors.New("quota exceeded"))
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Status() != models.RunFailed || got.ErrorMessage() != "quota exceeded" {
			t.Errorf("unexpected status %s / %q", got.Status(), got.ErrorMessage())
		}
		if got.Collections() != 2 || got.Matched() != 10 || got.Unmatched() != 3 || got.FailedBatches() != 1 {
			t.Errorf("unexpected counters: %d %d %d %d", got.Collections(), got.Matched(), got.Unmatched(), got.FailedBatches())
		}
		if got.FinishedAt() == nil {
			t.Error("expected finish time")
		}
	})

	t.Run("Update not found", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.RestoreRun("missing", 1, models.RunCompleted, false, 0, 0, 0, 0, "", nil, time.Now(), time.Now())
		if err := repo.Update(run); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("List and Latest", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		first := createRun(t, repo, false)
		second := createRun(t, repo, false)
		second.Finish(1, 1, 0, 0, nil)
		if err := repo.Update(second); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		runs, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 || runs[0].ID() != second.ID() || runs[1].ID() != first.ID() {
			t.Errorf("expected newest first")
		}

		completed, err := repo.List(map[string]any{"status": models.RunCompleted})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(completed) != 1 || completed[0].ID() != second.ID() {
			t.Errorf("expected only the completed run, got %d", len(completed))
		}

		limited, err := repo.List(map[string]any{"limit": 1})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("expected 1 run, got %d", len(limited))
		}

		latest, err := repo.Latest()
		if err != nil {
			t.Fatalf("failed to get latest run: %v", err)
		}
		if latest.ID() != second.ID() {
			t.Errorf("expected latest run %s, got %s", second.ID(), latest.ID())
		}
	})

	t.Run("Latest on empty database", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if _, err := repo.Latest(); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})
}

func TestOutcomeRepository(t *testing.T) {
	track := models.SourceTrack{ID: "v1", Title: "Song", Channel: "Band - Topic"}
	pair := models.ArtistTitle{Title: "Song", Artist: "Band"}

	t.Run("Create and Get", func(t *testing.T) {
		db := setupTestDB(t)
		run := createRun(t, NewRunRepository(db), false)
		repo := NewOutcomeRepository(db)

		o := models.NewOutcome(run.ID(), "Liked Videos", track, pair, models.Match{TrackID: "t1"})
		if err := repo.Create(o); err != nil {
			t.Fatalf("failed to create outcome: %v", err)
		}

		got, err := repo.Get(o.ID())
		if err != nil {
			t.Fatalf("failed to get outcome: %v", err)
		}
		if got.Status() != models.OutcomeMatched || got.TrackID() != "t1" || got.Artist() != "Band" || got.SourceID() != "v1" {
			t.Errorf("unexpected outcome: %+v", got)
		}
	})

	t.Run("Create requires existing run", func(t *testing.T) {
		repo := NewOutcomeRepository(setupTestDB(t))
		o := models.NewOutcome("missing-run", "Liked Videos", track, pair, models.NoMatch)
		if err := repo.Create(o); err == nil {
			t.Error("expected foreign key error")
		}
	})

	t.Run("Create validates", func(t *testing.T) {
		repo := NewOutcomeRepository(setupTestDB(t))
		o := models.NewOutcome("", "Liked Videos", track, pair, models.NoMatch)
		if err := repo.Create(o); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		run := createRun(t, NewRunRepository(db), false)
		repo := NewOutcomeRepository(db)

		o := models.NewOutcome(run.ID(), "Mix", track, pair, models.NoMatch)
		if err := repo.Create(o); err != nil {
			t.Fatalf("failed to create outcome: %v", err)
		}
		updated := models.RestoreOutcome(o.ID(), o.Sequence(), o.RunID(), o.Collection(), o.SourceID(), o.Title(), "Other", "t9", models.OutcomeMatched, o.CreatedAt(), o.UpdatedAt())
		if err := repo.Update(updated); err != nil {
			t.Fatalf("failed to update outcome: %v", err)
		}

		got, err := repo.Get(o.ID())
		if err != nil {
			t.Fatalf("failed to get outcome: %v", err)
		}
		if got.TrackID() != "t9" || got.Artist() != "Other" || got.Status() != models.OutcomeMatched {
			t.Errorf("update not applied: %+v", got)
		}
	})

	t.Run("Get not found", func(t *testing.T) {
		repo := NewOutcomeRepository(setupTestDB(t))
		if _, err := repo.Get("nope"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("List and UnmatchedByRun", func(t *testing.T) {
		db := setupTestDB(t)
		runs := NewRunRepository(db)
		first := createRun(t, runs, false)
		second := createRun(t, runs, false)
		repo := NewOutcomeRepository(db)

		for _, o := range []*models.Outcome{
			models.NewOutcome(first.ID(), "Liked Videos", models.SourceTrack{ID: "a", Title: "A"}, pair, models.Match{TrackID: "t1"}),
			models.NewOutcome(first.ID(), "Liked Videos", models.SourceTrack{ID: "b", Title: "B"}, pair, models.NoMatch),
			models.NewOutcome(first.ID(), "Mix", models.SourceTrack{ID: "c", Title: "C"}, pair, models.NoMatch),
			models.NewOutcome(second.ID(), "Mix", models.SourceTrack{ID: "d", Title: "D"}, pair, models.NoMatch),
		} {
			if err := repo.Create(o); err != nil {
				t.Fatalf("failed to create outcome: %v", err)
			}
		}

		all, err := repo.List(map[string]any{"run_id": first.ID()})
		if err != nil {
			t.Fatalf("failed to list outcomes: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 outcomes, got %d", len(all))
		}

		unmatched, err := repo.UnmatchedByRun(first.ID())
		if err != nil {
			t.Fatalf("failed to list unmatched: %v", err)
		}
		if len(unmatched) != 2 || unmatched[0].Title() != "B" || unmatched[1].Title() != "C" {
			t.Errorf("unexpected unmatched outcomes: %d", len(unmatched))
		}

		mix, err := repo.List(map[string]any{"collection": "Mix", "status": "unmatched"})
		if err != nil {
			t.Fatalf("failed to list outcomes: %v", err)
		}
		if len(mix) != 2 {
			t.Errorf("expected 2 outcomes in Mix, got %d", len(mix))
		}
	})
}

func TestReportRecorder(t *testing.T) {
	db := setupTestDB(t)
	runs := NewRunRepository(db)
	outcomes := NewOutcomeRepository(db)
	rec := NewReportRecorder(runs, outcomes)
	ctx := context.Background()

	runID, err := rec.Begin(ctx, true)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	track := models.SourceTrack{ID: "v1", Title: "Song"}
	if err := rec.Record(ctx, models.NewOutcome(runID, "Liked Videos", track, models.ArtistTitle{Title: "Song"}, models.NoMatch)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if err := rec.Finish(ctx, runID, tasks.Totals{Collections: 1, Unmatched: 1}, nil); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	run, err := runs.Get(runID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if run.Status() != models.RunCompleted || !run.DryRun() || run.Unmatched() != 1 {
		t.Errorf("unexpected run: status=%s dry=%v unmatched=%d", run.Status(), run.DryRun(), run.Unmatched())
	}

	unmatched, err := outcomes.UnmatchedByRun(runID)
	if err != nil {
		t.Fatalf("failed to list unmatched: %v", err)
	}
	if len(unmatched) != 1 {
		t.Errorf("expected 1 unmatched outcome, got %d", len(unmatched))
	}

	if err := rec.Finish(ctx, "missing", tasks.Totals{}, nil); !errors.Is(err, shared.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}
