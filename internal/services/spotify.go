package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytspot/internal/models"
	"github.com/desertthunder/ytspot/internal/shared"
	"github.com/samber/lo"
	"github.com/zmb3/spotify/v2"
)

// SpotifyService implements [Destination] on the Spotify Web API.
type SpotifyService struct {
	client *spotify.Client
	logger *log.Logger

	mu     sync.Mutex
	userID string
}

// NewSpotifyService wraps an API client.
func NewSpotifyService(client *spotify.Client, logger *log.Logger) *SpotifyService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SpotifyService{client: client, logger: logger}
}

// NewSpotifyServiceWithClient builds the API client on an authorized HTTP client.
func NewSpotifyServiceWithClient(httpClient *http.Client, logger *log.Logger, opts ...spotify.ClientOption) *SpotifyService {
	return NewSpotifyService(spotify.New(httpClient, opts...), logger)
}

// CurrentUser returns the id of the authenticated user, looked up once.
func (s *SpotifyService) CurrentUser(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID != "" {
		return s.userID, nil
	}

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: current user: %w", shared.ErrAPIRequest, err)
	}
	s.userID = user.ID
	s.logger.Debug("resolved spotify user", "id", user.ID)
	return s.userID, nil
}

// CreateCollection implements [Destination].
func (s *SpotifyService) CreateCollection(ctx context.Context, name, description string) (*models.Collection, error) {
	userID, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	playlist, err := s.client.CreatePlaylistForUser(ctx, userID, name, description, true, false)
	if err != nil {
		return nil, fmt.Errorf("%w: create playlist %q: %w", shared.ErrAPIRequest, name, err)
	}

	return &models.Collection{
		ID:          string(playlist.ID),
		Name:        playlist.Name,
		Description: playlist.Description,
		Public:      playlist.IsPublic,
	}, nil
}

// SearchTracks implements [Searcher].
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Match, error) {
	result, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %w", shared.ErrAPIRequest, query, err)
	}
	if result.Tracks == nil {
		return nil, nil
	}

	return lo.Map(result.Tracks.Tracks, func(t spotify.FullTrack, _ int) models.Match {
		return models.Match{
			TrackID: string(t.ID),
			Name:    t.Name,
			Artist: strings.Join(lo.Map(t.Artists, func(a spotify.SimpleArtist, _ int) string {
				return a.Name
			}), ", "),
			Album:       t.Album.Name,
			ReleaseDate: t.Album.ReleaseDate,
		}
	}), nil
}

// AddTracks implements [Destination].
func (s *SpotifyService) AddTracks(ctx context.Context, collectionID string, trackIDs []string) error {
	ids := lo.Map(trackIDs, func(id string, _ int) spotify.ID { return spotify.ID(id) })

	snapshot, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(collectionID), ids...)
	if err != nil {
		return fmt.Errorf("%w: add %d tracks to %s: %w", shared.ErrAPIRequest, len(ids), collectionID, err)
	}
	s.logger.Debug("tracks added", "playlist", collectionID, "count", len(ids), "snapshot", snapshot)
	return nil
}
