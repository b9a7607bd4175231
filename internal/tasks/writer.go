package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytspot/internal/services"
	"github.com/desertthunder/ytspot/internal/shared"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

const (
	DefaultBatchSize  = 20
	DefaultBatchPause = time.Second
)

// AppendSummary counts the append requests made for one collection.
type AppendSummary struct {
	Batches       int // Requests issued
	FailedBatches int // Requests that returned an error
	Appended      int // Track ids in successful requests
}

// WriterOpts configures a [Writer].
type WriterOpts struct {
	BatchSize int           // Ids per request (default 20)
	Pause     time.Duration // Wait between requests; 0 disables it
	Logger    *log.Logger
}

// Writer appends track ids to a destination collection in fixed-size batches.
type Writer struct {
	dest      services.Destination
	batchSize int
	pause     time.Duration
	logger    *log.Logger
}

// NewWriter creates a [Writer]. A zero BatchSize uses [DefaultBatchSize].
func NewWriter(dest services.Destination, opts WriterOpts) *Writer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Pause < 0 {
		opts.Pause = 0
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Writer{dest: dest, batchSize: opts.BatchSize, pause: opts.Pause, logger: opts.Logger}
}

// Append issues one request per chunk of ids, in order, waiting the configured pause between requests.
//
// The pause is measured from the end of one request to the start of the next.
// A failed request is logged and the remaining chunks are still sent.
// Only cancellation of ctx stops the loop early.
func (w *Writer) Append(ctx context.Context, collectionID string, ids []string) (AppendSummary, error) {
	var summary AppendSummary
	if len(ids) == 0 {
		return summary, nil
	}

	var pacer *rate.Limiter
	chunks := lo.Chunk(ids, w.batchSize)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("append to %s interrupted: %w", collectionID, err)
		}
		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				return summary, fmt.Errorf("append to %s interrupted: %w", collectionID, err)
			}
		}

		summary.Batches++
		err := w.dest.AddTracks(ctx, collectionID, chunk)
		pacer = w.pacer()
		if err != nil {
			summary.FailedBatches++
			w.logger.Error("append batch failed", "collection", collectionID, "batch", i+1, "of", len(chunks), "size", len(chunk), "error", err)
			continue
		}
		summary.Appended += len(chunk)
		w.logger.Debug("append batch done", "collection", collectionID, "batch", i+1, "of", len(chunks), "size", len(chunk))
	}
	return summary, nil
}

// pacer returns a drained limiter whose next token arrives one pause from now, or nil without a pause.
func (w *Writer) pacer() *rate.Limiter {
	if w.pause <= 0 {
		return nil
	}
	l := rate.NewLimiter(rate.Every(w.pause), 1)
	l.Allow()
	return l
}
