package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytspot/internal/matcher"
	"github.com/desertthunder/ytspot/internal/models"
	"github.com/desertthunder/ytspot/internal/services"
	"github.com/desertthunder/ytspot/internal/shared"
)

const (
	DefaultFavoritesName        = "Liked Videos"
	DefaultFavoritesDescription = "Liked videos transferred from YouTube"
	DefaultDescriptionPrefix    = "Transferred from YouTube"
)

// Recorder receives a write-only account of a run.
//
// Implementations must not influence the transfer: the engine logs recorder errors and carries on.
type Recorder interface {
	Begin(ctx context.Context, dryRun bool) (runID string, err error)
	Record(ctx context.Context, outcome *models.Outcome) error
	Finish(ctx context.Context, runID string, totals Totals, runErr error) error
}

// Totals are the final counters of a run.
type Totals struct {
	Collections   int
	Matched       int
	Unmatched     int
	FailedBatches int
}

// RunOptions select what a single run transfers.
type RunOptions struct {
	SkipFavorites bool
	SkipPlaylists bool
	Playlists     []string // Source playlist ids or titles; empty means all
	DryRun        bool     // Fetch and match only
}

// UnmatchedTrack is a source item without a catalog match.
type UnmatchedTrack struct {
	Collection string
	Track      models.SourceTrack
	Pair       models.ArtistTitle
}

// CollectionOutcome is the result of transferring one source collection.
type CollectionOutcome struct {
	SourceID    string
	Title       string
	Destination *models.Collection // nil in a dry run
	Items       int
	Matched     []models.Match
	Unmatched   []UnmatchedTrack
	Append      AppendSummary
}

// RunResult contains all data from a transfer run.
type RunResult struct {
	RunID       string // Empty when no recorder is configured
	DryRun      bool
	Collections []CollectionOutcome
	Unmatched   []UnmatchedTrack
	Matched     int
}

// Totals summarizes the result.
func (r *RunResult) Totals() Totals {
	t := Totals{Collections: len(r.Collections), Matched: r.Matched, Unmatched: len(r.Unmatched)}
	for _, c := range r.Collections {
		t.FailedBatches += c.Append.FailedBatches
	}
	return t
}

// EngineOpts configures an [Engine]. Zero values fall back to defaults.
type EngineOpts struct {
	Matcher              *matcher.Matcher
	Writer               *Writer
	Recorder             Recorder
	Logger               *log.Logger
	FavoritesID          string
	FavoritesName        string
	FavoritesDescription string
	DescriptionPrefix    string
}

// Engine composes the source reader, the catalog matcher and the destination writer.
type Engine struct {
	source      services.Source
	destination services.Destination
	matcher     *matcher.Matcher
	writer      *Writer
	recorder    Recorder
	logger      *log.Logger

	favoritesID          string
	favoritesName        string
	favoritesDescription string
	descriptionPrefix    string
}

// NewEngine creates an [Engine] over the given services.
func NewEngine(source services.Source, destination services.Destination, opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Matcher == nil {
		opts.Matcher = matcher.NewMatcher(destination, matcher.WithLogger(opts.Logger))
	}
	if opts.Writer == nil {
		opts.Writer = NewWriter(destination, WriterOpts{Pause: DefaultBatchPause, Logger: opts.Logger})
	}
	if opts.FavoritesID == "" {
		opts.FavoritesID = services.FavoritesPlaylistID
	}
	if opts.FavoritesName == "" {
		opts.FavoritesName = DefaultFavoritesName
	}
	if opts.FavoritesDescription == "" {
		opts.FavoritesDescription = DefaultFavoritesDescription
	}
	if opts.DescriptionPrefix == "" {
		opts.DescriptionPrefix = DefaultDescriptionPrefix
	}

	return &Engine{
		source:               source,
		destination:          destination,
		matcher:              opts.Matcher,
		writer:               opts.Writer,
		recorder:             opts.Recorder,
		logger:               opts.Logger,
		favoritesID:          opts.FavoritesID,
		favoritesName:        opts.FavoritesName,
		favoritesDescription: opts.FavoritesDescription,
		descriptionPrefix:    opts.DescriptionPrefix,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run transfers the favorites collection, then every selected source playlist, one after the other.
//
// Fetch, create and search failures abort the run and are returned together with the partial result.
// Failed append batches are counted but do not abort.
func (e *Engine) Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.source == nil || e.destination == nil {
		return nil, fmt.Errorf("%w: source and destination are required", shared.ErrServiceUnavailable)
	}

	result := &RunResult{DryRun: opts.DryRun}
	result.RunID = e.begin(ctx, opts.DryRun)

	err := e.run(ctx, opts, result, progress)
	e.finish(ctx, result, err)
	if err != nil {
		return result, err
	}

	e.sendProgress(progress, finishedUpdate(result))
	return result, nil
}

func (e *Engine) run(ctx context.Context, opts RunOptions, result *RunResult, progress chan<- ProgressUpdate) error {
	if !opts.SkipFavorites {
		e.sendProgress(progress, fetchFavoritesUpdate())
		items, err := e.source.Favorites(ctx)
		if err != nil {
			return fmt.Errorf("fetch liked videos: %w", err)
		}
		e.sendProgress(progress, foundFavoritesUpdate(len(items)))

		out, err := e.transfer(ctx, opts, result.RunID, progress, e.favoritesID, e.favoritesName, e.favoritesDescription, func() ([]models.SourceTrack, error) {
			return items, nil
		})
		result.collect(out, err)
		if err != nil {
			return err
		}
	}

	if opts.SkipPlaylists {
		return nil
	}

	e.sendProgress(progress, fetchCollectionsUpdate())
	all, err := e.source.Collections(ctx)
	if err != nil {
		return fmt.Errorf("list playlists: %w", err)
	}
	selected, missing := selectCollections(all, opts.Playlists)
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, strings.Join(missing, ", "))
	}
	e.sendProgress(progress, foundCollectionsUpdate(len(selected), len(all)))

	for i, d := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}

		description := fmt.Sprintf("%s: %s", e.descriptionPrefix, d.Title)
		out, err := e.transfer(ctx, opts, result.RunID, progress, d.ID, d.Title, description, func() ([]models.SourceTrack, error) {
			e.sendProgress(progress, fetchItemsUpdate(i+1, len(selected), d))
			return e.source.CollectionItems(ctx, d.ID)
		})
		result.collect(out, err)
		if err != nil {
			return err
		}
	}
	return nil
}

// transfer creates the destination collection, loads the items, matches them and appends the matches.
//
// The collection is created before load runs.
func (e *Engine) transfer(
	ctx context.Context,
	opts RunOptions,
	runID string,
	progress chan<- ProgressUpdate,
	sourceID, name, description string,
	load func() ([]models.SourceTrack, error),
) (*CollectionOutcome, error) {
	logger := shared.WithLogger(e.logger, "collection", name)
	out := &CollectionOutcome{SourceID: sourceID, Title: name}

	if !opts.DryRun {
		c, err := e.destination.CreateCollection(ctx, name, description)
		if err != nil {
			return out, fmt.Errorf("create playlist %q: %w", name, err)
		}
		out.Destination = c
		e.sendProgress(progress, createCollectionUpdate(c))
		logger.Info("playlist created", "id", c.ID)
	}

	items, err := load()
	if err != nil {
		return out, fmt.Errorf("fetch items of %q: %w", name, err)
	}
	out.Items = len(items)

	ids := make([]string, 0, len(items))
	for i, track := range items {
		pair := e.matcher.Pair(track)
		m, err := e.matcher.MatchPair(ctx, pair)
		if err != nil {
			return out, fmt.Errorf("match %q: %w", track.Title, err)
		}
		e.sendProgress(progress, matchTrackUpdate(i+1, len(items), pair, m))
		e.record(ctx, runID, name, track, pair, m)

		if m.Found() {
			out.Matched = append(out.Matched, m)
			ids = append(ids, m.TrackID)
			continue
		}
		out.Unmatched = append(out.Unmatched, UnmatchedTrack{Collection: name, Track: track, Pair: pair})
		logger.Debug("no match", "title", track.Title, "artist", pair.Artist)
	}

	if opts.DryRun {
		return out, nil
	}

	summary, err := e.writer.Append(ctx, out.Destination.ID, ids)
	out.Append = summary
	if err != nil {
		return out, err
	}
	if summary.Batches > 0 {
		e.sendProgress(progress, appendTracksUpdate(name, summary))
	}
	if summary.FailedBatches > 0 {
		logger.Warn("some batches failed", "failed", summary.FailedBatches, "batches", summary.Batches)
	}
	return out, nil
}

// collect adds out to the result. A collection that failed before it was created is left out.
func (r *RunResult) collect(out *CollectionOutcome, err error) {
	if err != nil && out.Destination == nil {
		return
	}
	r.Collections = append(r.Collections, *out)
	r.Matched += len(out.Matched)
	r.Unmatched = append(r.Unmatched, out.Unmatched...)
}

// selectCollections keeps the descriptors whose id or title is in filter, preserving source order.
//
// Filter entries that match no descriptor are returned as missing.
func selectCollections(all []models.CollectionDescriptor, filter []string) (selected []models.CollectionDescriptor, missing []string) {
	if len(filter) == 0 {
		return all, nil
	}
	for _, d := range all {
		if slices.Contains(filter, d.ID) || slices.Contains(filter, d.Title) {
			selected = append(selected, d)
		}
	}
	for _, f := range filter {
		found := slices.ContainsFunc(all, func(d models.CollectionDescriptor) bool {
			return d.ID == f || d.Title == f
		})
		if !found {
			missing = append(missing, f)
		}
	}
	return selected, missing
}

func (e *Engine) begin(ctx context.Context, dryRun bool) string {
	if e.recorder == nil {
		return ""
	}
	id, err := e.recorder.Begin(ctx, dryRun)
	if err != nil {
		e.logger.Warn("failed to record run, continuing without report", "error", err)
		return ""
	}
	return id
}

func (e *Engine) record(ctx context.Context, runID, collection string, track models.SourceTrack, pair models.ArtistTitle, m models.Match) {
	if e.recorder == nil || runID == "" {
		return
	}
	if err := e.recorder.Record(ctx, models.NewOutcome(runID, collection, track, pair, m)); err != nil {
		e.logger.Warn("failed to record outcome", "title", track.Title, "error", err)
	}
}

func (e *Engine) finish(ctx context.Context, result *RunResult, runErr error) {
	if e.recorder == nil || result.RunID == "" {
		return
	}
	// The run may have been cancelled; the report still gets its final state.
	if err := e.recorder.Finish(context.WithoutCancel(ctx), result.RunID, result.Totals(), runErr); err != nil {
		e.logger.Warn("failed to finish run record", "run", result.RunID, "error", err)
	}
}
