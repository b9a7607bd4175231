package tasks

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/ytspot/internal/models"
	"github.com/desertthunder/ytspot/internal/shared"
	tu "github.com/desertthunder/ytspot/internal/testing"
)

type fakeRecorder struct {
	mu       sync.Mutex
	beginErr error
	dryRun   bool
	outcomes []*models.Outcome
	finished bool
	totals   Totals
	runErr   error
}

func (f *fakeRecorder) Begin(ctx context.Context, dryRun bool) (string, error) {
	f.dryRun = dryRun
	if f.beginErr != nil {
		return "", f.beginErr
	}
	return "run-1", nil
}

func (f *fakeRecorder) Record(ctx context.Context, o *models.Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, o)
	return nil
}

func (f *fakeRecorder) Finish(ctx context.Context, runID string, totals Totals, runErr error) error {
	f.finished = true
	f.totals = totals
	f.runErr = runErr
	return nil
}

func newTestEngine(src *tu.MockSource, dest *tu.MockDestination, rec Recorder) *Engine {
	return NewEngine(src, dest, EngineOpts{
		Writer:   NewWriter(dest, WriterOpts{}),
		Recorder: rec,
	})
}

func TestEngineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("favorites end to end", func(t *testing.T) {
		src := &tu.MockSource{FavoriteItems: []models.SourceTrack{
			{ID: "v1", Title: "Song A", Channel: "Band - Topic"},
			{ID: "v2", Title: "Song B", Channel: "Someone"},
		}}
		dest := &tu.MockDestination{Results: map[string][]models.Match{
			"track:Song A artist:Band": {{TrackID: "t1", Name: "Song A"}},
		}}

		result, err := newTestEngine(src, dest, nil).Run(ctx, RunOptions{SkipPlaylists: true}, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if len(dest.Created) != 1 {
			t.Fatalf("expected 1 collection created, got %d", len(dest.Created))
		}
		if dest.Created[0].Name != DefaultFavoritesName {
			t.Errorf("expected favorites collection name, got %q", dest.Created[0].Name)
		}
		if got := dest.AppendedIDs(); !slices.Equal(got, []string{"t1"}) {
			t.Errorf("expected [t1] appended, got %v", got)
		}
		if len(result.Unmatched) != 1 || result.Unmatched[0].Track.Title != "Song B" {
			t.Errorf("expected Song B unmatched, got %+v", result.Unmatched)
		}
		if result.Matched != 1 {
			t.Errorf("expected 1 matched, got %d", result.Matched)
		}
		if !slices.Equal(dest.Queries, []string{"track:Song A artist:Band", "track:Song B artist:Someone"}) {
			t.Errorf("unexpected queries: %v", dest.Queries)
		}
	})

	t.Run("collections in order", func(t *testing.T) {
		src := &tu.MockSource{
			FavoriteItems: []models.SourceTrack{{ID: "v0", Title: "Fav"}},
			Playlists: []models.CollectionDescriptor{
				{ID: "PL1", Title: "Road Trip"},
				{ID: "PL2", Title: "Focus"},
			},
			Items: map[string][]models.SourceTrack{
				"PL1": {{ID: "v1", Title: "One"}, {ID: "v2", Title: "Two"}},
				"PL2": {{ID: "v3", Title: "Three"}},
			},
		}
		dest := &tu.MockDestination{Results: map[string][]models.Match{
			"track:Fav":   {{TrackID: "t0"}},
			"track:One":   {{TrackID: "t1"}},
			"track:Two":   {{TrackID: "t2"}},
			"track:Three": {{TrackID: "t3"}},
		}}

		result, err := newTestEngine(src, dest, nil).Run(ctx, RunOptions{}, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		wantSource := []string{"favorites", "collections", "items:PL1", "items:PL2"}
		if !slices.Equal(src.Calls, wantSource) {
			t.Errorf("source calls = %v, want %v", src.Calls, wantSource)
		}
		wantDest := []string{"create:Liked Videos", "add:pl1", "create:Road Trip", "add:pl2", "create:Focus", "add:pl3"}
		if !slices.Equal(dest.Calls, wantDest) {
			t.Errorf("destination calls = %v, want %v", dest.Calls, wantDest)
		}
		if dest.Created[1].Description != DefaultDescriptionPrefix+": Road Trip" {
			t.Errorf("unexpected description: %q", dest.Created[1].Description)
		}
		if !slices.Equal(dest.Appended[1].TrackIDs, []string{"t1", "t2"}) {
			t.Errorf("unexpected append for Road Trip: %v", dest.Appended[1].TrackIDs)
		}
		if len(result.Collections) != 3 || result.Matched != 4 {
			t.Errorf("unexpected result: %d collections, %d matched", len(result.Collections), result.Matched)
		}
	})

	t.Run("playlist collection is created before items are fetched", func(t *testing.T) {
		src := &tu.MockSource{
			Playlists: []models.CollectionDescriptor{{ID: "PL1", Title: "Mix"}},
			ItemsErr:  map[string]error{"PL1": shared.ErrAPIRequest},
		}
		dest := &tu.MockDestination{}

		result, err := newTestEngine(src, dest, nil).Run(ctx, RunOptions{SkipFavorites: true}, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if len(dest.Created) != 1 {
			t.Errorf("expected the collection to exist, got %d", len(dest.Created))
		}
		if len(result.Collections) != 1 || result.Collections[0].Destination == nil {
			t.Errorf("expected the created collection in the partial result, got %+v", result.Collections)
		}
	})

	t.Run("favorites fetch error aborts before any write", func(t *testing.T) {
		src := &tu.MockSource{FavoritesErr: shared.ErrAPIRequest}
		dest := &tu.MockDestination{}

		_, err := newTestEngine(src, dest, nil).Run(ctx, RunOptions{}, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if len(dest.Calls) != 0 {
			t.Errorf("expected no destination calls, got %v", dest.Calls)
		}
		if slices.Contains(src.Calls, "collections") {
			t.Error("playlists should not be listed after a failed fetch")
		}
	})

	t.Run("search error aborts", func(t *testing.T) {
		boom := errors.New("search unavailable")
		src := &tu.MockSource{FavoriteItems: []models.SourceTrack{{ID: "v1", Title: "Song"}}}
		dest := &tu.MockDestination{SearchErr: map[string]error{"track:Song": boom}}

		_, err := newTestEngine(src, dest, nil).Run(ctx, RunOptions{}, nil)
		if !errors.Is(err, boom) {
			t.Fatalf("expected search error, got %v", err)
		}
		if len(dest.Appended) != 0 {
			t.Errorf("expected no appends, got %d", len(dest.Appended))
		}
	})

	t.Run("failed batch is not fatal", func(t *testing.T) {
		items := make([]models.SourceTrack, 25)
		results := map[string][]models.Match{}
		for i := range items {
			items[i] = models.SourceTrack{ID: ids(25)[i], Title: ids(25)[i]}
			results["track:"+ids(25)[i]] = []models.Match{{TrackID: ids(25)[i]}}
		}
		src := &tu.MockSource{FavoriteItems: items}
		dest := &tu.MockDestination{Results: results, AddErrs: map[int]error{1: errors.New("boom")}}

		result, err := newTestEngine(src, dest, nil).Run(ctx, RunOptions{SkipPlaylists: true}, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(dest.Appended) != 2 {
			t.Errorf("expected 2 append requests, got %d", len(dest.Appended))
		}
		if got := result.Totals().FailedBatches; got != 1 {
			t.Errorf("expected 1 failed batch, got %d", got)
		}
		if result.Collections[0].Append.Appended != 5 {
			t.Errorf("expected 5 appended, got %d", result.Collections[0].Append.Appended)
		}
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		src := &tu.MockSource{
			FavoriteItems: []models.SourceTrack{{ID: "v1", Title: "Song"}},
			Playlists:     []models.CollectionDescriptor{{ID: "PL1", Title: "Mix"}},
			Items:         map[string][]models.SourceTrack{"PL1": {{ID: "v2", Title: "Other"}}},
		}
		dest := &tu.MockDestination{Results: map[string][]models.Match{"track:Song": {{TrackID: "t1"}}}}

		result, err := newTestEngine(src, dest, nil).Run(ctx, RunOptions{DryRun: true}, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(dest.Calls) != 0 {
			t.Errorf("expected no writes, got %v", dest.Calls)
		}
		if len(dest.Queries) != 2 {
			t.Errorf("expected both items searched, got %v", dest.Queries)
		}
		if !result.DryRun || result.Matched != 1 || len(result.Unmatched) != 1 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("playlist filter", func(t *testing.T) {
		src := &tu.MockSource{
			Playlists: []models.CollectionDescriptor{
				{ID: "PL1", Title: "Road Trip"},
				{ID: "PL2", Title: "Focus"},
				{ID: "PL3", Title: "Gym"},
			},
		}
		dest := &tu.MockDestination{}

		_, err := newTestEngine(src, dest, nil).Run(ctx, RunOptions{SkipFavorites: true, Playlists: []string{"PL3", "Road Trip"}}, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		want := []string{"collections", "items:PL1", "items:PL3"}
		if !slices.Equal(src.Calls, want) {
			t.Errorf("source calls = %v, want %v", src.Calls, want)
		}
	})

	t.Run("playlist filter with unknown entry", func(t *testing.T) {
		src := &tu.MockSource{
			Playlists: []models.CollectionDescriptor{{ID: "PL1", Title: "Road Trip"}},
		}
		dest := &tu.MockDestination{}

		_, err := newTestEngine(src, dest, nil).Run(ctx, RunOptions{SkipFavorites: true, Playlists: []string{"Road Trip", "Nope"}}, nil)
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
		}
		if !strings.Contains(err.Error(), "Nope") {
			t.Errorf("expected the unknown entry in the error, got %v", err)
		}
		if len(dest.Created) != 0 || len(src.Calls) != 1 {
			t.Errorf("expected no playlists and only the listing call, got created=%v calls=%v", dest.Created, src.Calls)
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		src := &tu.MockSource{FavoriteItems: []models.SourceTrack{{ID: "v1", Title: "Song"}}}
		dest := &tu.MockDestination{Results: map[string][]models.Match{"track:Song": {{TrackID: "t1"}}}}
		progress := make(chan ProgressUpdate, 32)

		if _, err := newTestEngine(src, dest, nil).Run(ctx, RunOptions{SkipPlaylists: true}, progress); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		close(progress)

		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		want := []Phase{FetchFavorites, FetchFavorites, CreateCollection, MatchTracks, AppendTracks, Finished}
		if !slices.Equal(phases, want) {
			t.Errorf("phases = %v, want %v", phases, want)
		}
	})

	t.Run("full progress channel never blocks", func(t *testing.T) {
		src := &tu.MockSource{FavoriteItems: []models.SourceTrack{{ID: "v1", Title: "Song"}}}
		dest := &tu.MockDestination{}
		progress := make(chan ProgressUpdate)

		if _, err := newTestEngine(src, dest, nil).Run(ctx, RunOptions{}, progress); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	})

	t.Run("recorder receives outcomes", func(t *testing.T) {
		src := &tu.MockSource{FavoriteItems: []models.SourceTrack{
			{ID: "v1", Title: "Song A", Channel: "Band - Topic"},
			{ID: "v2", Title: "Song B"},
		}}
		dest := &tu.MockDestination{Results: map[string][]models.Match{
			"track:Song A artist:Band": {{TrackID: "t1"}},
		}}
		rec := &fakeRecorder{}

		result, err := newTestEngine(src, dest, rec).Run(ctx, RunOptions{SkipPlaylists: true}, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.RunID != "run-1" {
			t.Errorf("expected run id, got %q", result.RunID)
		}
		if len(rec.outcomes) != 2 {
			t.Fatalf("expected 2 outcomes, got %d", len(rec.outcomes))
		}
		if rec.outcomes[0].Status() != models.OutcomeMatched || rec.outcomes[0].Artist() != "Band" {
			t.Errorf("unexpected first outcome: %+v", rec.outcomes[0])
		}
		if rec.outcomes[1].Status() != models.OutcomeUnmatched {
			t.Errorf("expected second outcome unmatched")
		}
		if !rec.finished || rec.totals.Matched != 1 || rec.totals.Unmatched != 1 || rec.totals.Collections != 1 {
			t.Errorf("unexpected totals: %+v", rec.totals)
		}
	})

	t.Run("recorder failure does not abort", func(t *testing.T) {
		src := &tu.MockSource{FavoriteItems: []models.SourceTrack{{ID: "v1", Title: "Song"}}}
		dest := &tu.MockDestination{}
		rec := &fakeRecorder{beginErr: errors.New("disk full")}

		result, err := newTestEngine(src, dest, rec).Run(ctx, RunOptions{}, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.RunID != "" || len(rec.outcomes) != 0 || rec.finished {
			t.Errorf("expected recording to be disabled")
		}
	})

	t.Run("failed run is recorded", func(t *testing.T) {
		src := &tu.MockSource{CollectionsErr: shared.ErrAPIRequest}
		dest := &tu.MockDestination{}
		rec := &fakeRecorder{}

		_, err := newTestEngine(src, dest, rec).Run(ctx, RunOptions{SkipFavorites: true, DryRun: true}, nil)
		if err == nil {
			t.Fatal("expected error")
		}
		if !rec.dryRun {
			t.Error("expected dry run to be recorded")
		}
		if !errors.Is(rec.runErr, shared.ErrAPIRequest) {
			t.Errorf("expected run error to be recorded, got %v", rec.runErr)
		}
	})

	t.Run("missing services", func(t *testing.T) {
		e := NewEngine(nil, &tu.MockDestination{}, EngineOpts{})
		if _, err := e.Run(ctx, RunOptions{}, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{FetchFavorites, "fetch_favorites"},
		{FetchCollections, "fetch_collections"},
		{FetchItems, "fetch_items"},
		{CreateCollection, "create_collection"},
		{MatchTracks, "match_tracks"},
		{AppendTracks, "append_tracks"},
		{Finished, "finished"},
		{Phase(99), ""},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
