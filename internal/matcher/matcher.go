package matcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytspot/internal/models"
	"github.com/desertthunder/ytspot/internal/services"
	"github.com/desertthunder/ytspot/internal/shared"
)

// TopicSuffix marks channels auto-generated for an artist's catalog.
const TopicSuffix = " - Topic"

// ArtistFunc derives an artist name from an uploader label.
type ArtistFunc func(label string) string

// DeriveArtist strips the exact trailing [TopicSuffix] from label.
func DeriveArtist(label string) string {
	return strings.TrimSuffix(label, TopicSuffix)
}

// Query builds the search query for pair. The artist term is omitted when empty.
func Query(pair models.ArtistTitle) string {
	q := "track:" + pair.Title
	if pair.Artist != "" {
		q += " artist:" + pair.Artist
	}
	return q
}

// Matcher resolves source items to catalog tracks through a [services.Searcher].
type Matcher struct {
	searcher services.Searcher
	artist   ArtistFunc
	retry    shared.RetryPolicy
	logger   *log.Logger
}

// Option configures a [Matcher].
type Option func(*Matcher)

// WithArtistFunc replaces [DeriveArtist].
func WithArtistFunc(fn ArtistFunc) Option {
	return func(m *Matcher) {
		if fn != nil {
			m.artist = fn
		}
	}
}

// WithRetry retries searches that fail with a transient error.
func WithRetry(policy shared.RetryPolicy) Option {
	return func(m *Matcher) { m.retry = policy }
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger *log.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMatcher creates a [Matcher] that searches with s.
func NewMatcher(s services.Searcher, opts ...Option) *Matcher {
	m := &Matcher{
		searcher: s,
		artist:   DeriveArtist,
		retry:    shared.NoRetry,
		logger:   shared.NewLogger(nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Pair derives the title and artist used to search for track.
func (m *Matcher) Pair(track models.SourceTrack) models.ArtistTitle {
	return models.ArtistTitle{
		Title:  track.Title,
		Artist: m.artist(track.Channel),
	}
}

// Match searches for track and returns the top result.
//
// No candidates yields [models.NoMatch] and a nil error. A failed search is returned as an error.
func (m *Matcher) Match(ctx context.Context, track models.SourceTrack) (models.Match, error) {
	return m.MatchPair(ctx, m.Pair(track))
}

// MatchPair is [Matcher.Match] for an already derived pair.
func (m *Matcher) MatchPair(ctx context.Context, pair models.ArtistTitle) (models.Match, error) {
	q := Query(pair)

	var results []models.Match
	err := m.retry.Do(ctx, m.logger, "search", func() error {
		var err error
		results, err = m.searcher.SearchTracks(ctx, q, 1)
		return err
	})
	if err != nil {
		return models.NoMatch, fmt.Errorf("search %q: %w", q, err)
	}

	if len(results) == 0 {
		return models.NoMatch, nil
	}
	return results[0], nil
}
