package models

import (
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a [Run].
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// OutcomeStatus is the result recorded for a single source item.
type OutcomeStatus string

const (
	OutcomeMatched   OutcomeStatus = "matched"
	OutcomeUnmatched OutcomeStatus = "unmatched"
)

// Run records a single invocation of the transfer.
type Run struct {
	id            string
	sequence      int
	status        RunStatus
	dryRun        bool
	collections   int
	matched       int
	unmatched     int
	failedBatches int
	errMsg        string
	finishedAt    *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

// NewRun creates a running [Run]. The ID is assigned by the repository.
func NewRun(sequence int, dryRun bool) *Run {
	now := time.Now()
	return &Run{
		sequence:  sequence,
		status:    RunRunning,
		dryRun:    dryRun,
		createdAt: now,
		updatedAt: now,
	}
}

// RestoreRun rebuilds a [Run] from stored values.
func RestoreRun(id string, sequence int, status RunStatus, dryRun bool, collections, matched, unmatched, failedBatches int, errMsg string, finishedAt *time.Time, createdAt, updatedAt time.Time) *Run {
	return &Run{
		id:            id,
		sequence:      sequence,
		status:        status,
		dryRun:        dryRun,
		collections:   collections,
		matched:       matched,
		unmatched:     unmatched,
		failedBatches: failedBatches,
		errMsg:        errMsg,
		finishedAt:    finishedAt,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (r *Run) ID() string { return r.id }
func (r *Run) Sequence() int { return r.sequence }
func (r *Run) Status() RunStatus { return r.status }
func (r *Run) DryRun() bool { return r.dryRun }
func (r *Run) Collections() int { return r.collections }
func (r *Run) Matched() int { return r.matched }
func (r *Run) Unmatched() int { return r.unmatched }
func (r *Run) FailedBatches() int { return r.failedBatches }
func (r *Run) ErrorMessage() string { return r.errMsg }
func (r *Run) FinishedAt() *time.Time { return r.finishedAt }
func (r *Run) CreatedAt() time.Time { return r.createdAt }
func (r *Run) UpdatedAt() time.Time { return r.updatedAt }
func (r *Run) SetID(id string) { r.id = id }
func (r *Run) SetSequence(seq int) { r.sequence = seq }
func (r *Run) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// Finish moves the run into a terminal state with its final counters.
//
// A non-nil err marks the run failed.
func (r *Run) Finish(collections, matched, unmatched, failedBatches int, err error) {
	now := time.Now()
	r.collections = collections
	r.matched = matched
	r.unmatched = unmatched
	r.failedBatches = failedBatches
	r.status = RunCompleted
	if err != nil {
		r.status = RunFailed
		r.errMsg = err.Error()
	}
	r.finishedAt = &now
	r.updatedAt = now
}

// Validate checks the run status.
func (r *Run) Validate() error {
	switch r.status {
	case RunRunning, RunCompleted, RunFailed:
		return nil
	default:
		return fmt.Errorf("invalid run status: %q", r.status)
	}
}

// Outcome records what happened to one source item in a run.
type Outcome struct {
	id         string
	sequence   int
	runID      string
	collection string
	sourceID   string
	title      string
	artist     string
	trackID    string
	status     OutcomeStatus
	createdAt  time.Time
	updatedAt  time.Time
}

// NewOutcome builds an [Outcome] from a source item and its match.
func NewOutcome(runID, collection string, track SourceTrack, pair ArtistTitle, match Match) *Outcome {
	now := time.Now()
	status := OutcomeUnmatched
	if match.Found() {
		status = OutcomeMatched
	}
	return &Outcome{
		runID:      runID,
		collection: collection,
		sourceID:   track.ID,
		title:      track.Title,
		artist:     pair.Artist,
		trackID:    match.TrackID,
		status:     status,
		createdAt:  now,
		updatedAt:  now,
	}
}

// RestoreOutcome rebuilds an [Outcome] from stored values.
func RestoreOutcome(id string, sequence int, runID, collection, sourceID, title, artist, trackID string, status OutcomeStatus, createdAt, updatedAt time.Time) *Outcome {
	return &Outcome{
		id:         id,
		sequence:   sequence,
		runID:      runID,
		collection: collection,
		sourceID:   sourceID,
		title:      title,
		artist:     artist,
		trackID:    trackID,
		status:     status,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (o *Outcome) ID() string { return o.id }
func (o *Outcome) Sequence() int { return o.sequence }
func (o *Outcome) RunID() string { return o.runID }
func (o *Outcome) Collection() string { return o.collection }
func (o *Outcome) SourceID() string { return o.sourceID }
func (o *Outcome) Title() string { return o.title }
func (o *Outcome) Artist() string { return o.artist }
func (o *Outcome) TrackID() string { return o.trackID }
func (o *Outcome) Status() OutcomeStatus { return o.status }
func (o *Outcome) CreatedAt() time.Time { return o.createdAt }
func (o *Outcome) UpdatedAt() time.Time { return o.updatedAt }
func (o *Outcome) SetID(id string) { o.id = id }
func (o *Outcome) SetSequence(seq int) { o.sequence = seq }
func (o *Outcome) SetUpdatedAt(t time.Time) { o.updatedAt = t }

// Validate requires a run reference and a known status.
func (o *Outcome) Validate() error {
	if o.runID == "" {
		return fmt.Errorf("outcome requires a run id")
	}
	switch o.status {
	case OutcomeMatched:
		if o.trackID == "" {
			return fmt.Errorf("matched outcome requires a track id")
		}
		return nil
	case OutcomeUnmatched:
		return nil
	default:
		return fmt.Errorf("invalid outcome status: %q", o.status)
	}
}
