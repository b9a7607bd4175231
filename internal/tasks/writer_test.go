package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	tu "github.com/desertthunder/ytspot/internal/testing"
)

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("t%d", i)
	}
	return out
}

// slowDestination records when each append request starts and ends.
type slowDestination struct {
	*tu.MockDestination
	delay  time.Duration
	starts []time.Time
	ends   []time.Time
}

func (d *slowDestination) AddTracks(ctx context.Context, collectionID string, trackIDs []string) error {
	d.starts = append(d.starts, time.Now())
	time.Sleep(d.delay)
	err := d.MockDestination.AddTracks(ctx, collectionID, trackIDs)
	d.ends = append(d.ends, time.Now())
	return err
}

func TestWriter(t *testing.T) {
	ctx := context.Background()

	t.Run("chunks preserve order", func(t *testing.T) {
		tests := []struct {
			name  string
			n     int
			sizes []int
		}{
			{name: "45 ids", n: 45, sizes: []int{20, 20, 5}},
			{name: "exact multiple", n: 40, sizes: []int{20, 20}},
			{name: "single batch", n: 3, sizes: []int{3}},
			{name: "empty", n: 0, sizes: nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				dest := &tu.MockDestination{}
				w := NewWriter(dest, WriterOpts{})

				summary, err := w.Append(ctx, "pl1", ids(tt.n))
				if err != nil {
					t.Fatalf("Append() error = %v", err)
				}

				var sizes []int
				for _, call := range dest.Appended {
					sizes = append(sizes, len(call.TrackIDs))
					if call.CollectionID != "pl1" {
						t.Errorf("expected collection pl1, got %s", call.CollectionID)
					}
				}
				if !slices.Equal(sizes, tt.sizes) {
					t.Errorf("expected batch sizes %v, got %v", tt.sizes, sizes)
				}
				if !slices.Equal(dest.AppendedIDs(), ids(tt.n)) && tt.n > 0 {
					t.Errorf("append order not preserved: %v", dest.AppendedIDs())
				}
				if summary.Batches != len(tt.sizes) || summary.Appended != tt.n || summary.FailedBatches != 0 {
					t.Errorf("unexpected summary: %+v", summary)
				}
			})
		}
	})

	t.Run("failed batch does not stop later batches", func(t *testing.T) {
		dest := &tu.MockDestination{AddErrs: map[int]error{2: errors.New("502 bad gateway")}}
		w := NewWriter(dest, WriterOpts{})

		summary, err := w.Append(ctx, "pl1", ids(45))
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if len(dest.Appended) != 3 {
			t.Fatalf("expected 3 requests, got %d", len(dest.Appended))
		}
		if summary.FailedBatches != 1 || summary.Batches != 3 || summary.Appended != 25 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("custom batch size", func(t *testing.T) {
		dest := &tu.MockDestination{}
		w := NewWriter(dest, WriterOpts{BatchSize: 2})

		if _, err := w.Append(ctx, "pl1", ids(5)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if len(dest.Appended) != 3 {
			t.Errorf("expected 3 requests, got %d", len(dest.Appended))
		}
	})

	t.Run("pause runs from the end of the previous request", func(t *testing.T) {
		dest := &slowDestination{MockDestination: &tu.MockDestination{}, delay: 45 * time.Millisecond}
		pause := 30 * time.Millisecond
		w := NewWriter(dest, WriterOpts{BatchSize: 1, Pause: pause})

		if _, err := w.Append(ctx, "pl1", ids(3)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if len(dest.starts) != 3 {
			t.Fatalf("expected 3 requests, got %d", len(dest.starts))
		}
		for i := 1; i < len(dest.starts); i++ {
			if gap := dest.starts[i].Sub(dest.ends[i-1]); gap < pause-2*time.Millisecond {
				t.Errorf("request %d started %v after request %d ended, want at least %v", i+1, gap, i, pause)
			}
		}
	})

	t.Run("no pause before the first request", func(t *testing.T) {
		dest := &slowDestination{MockDestination: &tu.MockDestination{}}
		w := NewWriter(dest, WriterOpts{Pause: time.Hour})

		start := time.Now()
		if _, err := w.Append(ctx, "pl1", ids(3)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("single batch waited %v", elapsed)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		dest := &tu.MockDestination{}
		w := NewWriter(dest, WriterOpts{BatchSize: 1, Pause: time.Hour})

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		summary, err := w.Append(cctx, "pl1", ids(2))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if summary.Batches != 0 {
			t.Errorf("expected no batches after cancel, got %d", summary.Batches)
		}
	})
}
