package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytspot/internal/models"
	"github.com/desertthunder/ytspot/internal/shared"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	// MaxPageSize is the largest maxResults the YouTube Data API accepts.
	MaxPageSize int64 = 50
	// FavoritesPlaylistID is the reserved id of the liked videos playlist.
	FavoritesPlaylistID = "LL"
)

// YouTubeService implements [Source] on the YouTube Data API v3.
type YouTubeService struct {
	svc         *youtube.Service
	pageSize    int64
	favoritesID string
	retry       shared.RetryPolicy
	logger      *log.Logger
}

// YouTubeOpts configures a [YouTubeService].
type YouTubeOpts struct {
	PageSize    int64 // Items per page, clamped to 1..50
	FavoritesID string
	Retry       shared.RetryPolicy
	Logger      *log.Logger
}

// NewYouTubeService wraps an API client.
func NewYouTubeService(svc *youtube.Service, opts YouTubeOpts) *YouTubeService {
	if opts.PageSize <= 0 || opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}
	if opts.FavoritesID == "" {
		opts.FavoritesID = FavoritesPlaylistID
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry = shared.NoRetry
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &YouTubeService{
		svc:         svc,
		pageSize:    opts.PageSize,
		favoritesID: opts.FavoritesID,
		retry:       opts.Retry,
		logger:      opts.Logger,
	}
}

// NewYouTubeServiceWithClient builds the API client on an authorized HTTP client.
func NewYouTubeServiceWithClient(ctx context.Context, client *http.Client, opts YouTubeOpts, extra ...option.ClientOption) (*YouTubeService, error) {
	clientOpts := append([]option.ClientOption{option.WithHTTPClient(client)}, extra...)
	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create YouTube client: %v", shared.ErrServiceUnavailable, err)
	}
	return NewYouTubeService(svc, opts), nil
}

// Favorites implements [Source].
func (s *YouTubeService) Favorites(ctx context.Context) ([]models.SourceTrack, error) {
	return s.CollectionItems(ctx, s.favoritesID)
}

// Collections implements [Source].
func (s *YouTubeService) Collections(ctx context.Context) ([]models.CollectionDescriptor, error) {
	return paginate(ctx, s.retry, s.logger, "list playlists", func(token string) ([]models.CollectionDescriptor, string, error) {
		call := s.svc.Playlists.List([]string{"snippet", "contentDetails"}).
			Mine(true).
			MaxResults(s.pageSize).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, "", err
		}

		out := make([]models.CollectionDescriptor, 0, len(resp.Items))
		for _, item := range resp.Items {
			d := models.CollectionDescriptor{ID: item.Id}
			if item.Snippet != nil {
				d.Title = item.Snippet.Title
				d.Description = item.Snippet.Description
			}
			if item.ContentDetails != nil {
				d.ItemCount = item.ContentDetails.ItemCount
			}
			out = append(out, d)
		}
		return out, resp.NextPageToken, nil
	})
}

// CollectionItems implements [Source].
//
// Items without a video id (deleted or private videos) are skipped.
func (s *YouTubeService) CollectionItems(ctx context.Context, id string) ([]models.SourceTrack, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: playlist id is empty", shared.ErrMissingArgument)
	}

	op := fmt.Sprintf("list items of %s", id)
	return paginate(ctx, s.retry, s.logger, op, func(token string) ([]models.SourceTrack, string, error) {
		call := s.svc.PlaylistItems.List([]string{"snippet"}).
			PlaylistId(id).
			MaxResults(s.pageSize).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, "", err
		}

		out := make([]models.SourceTrack, 0, len(resp.Items))
		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.ResourceId == nil || item.Snippet.ResourceId.VideoId == "" {
				s.logger.Debug("skipping item without video id", "playlist", id, "item", item.Id)
				continue
			}
			out = append(out, models.SourceTrack{
				ID:      item.Snippet.ResourceId.VideoId,
				Title:   item.Snippet.Title,
				Channel: item.Snippet.VideoOwnerChannelTitle,
			})
		}
		return out, resp.NextPageToken, nil
	})
}

// paginate follows continuation tokens until the service stops returning one.
//
// Each page request runs under retry. Any page that still fails aborts the fetch and discards earlier pages.
func paginate[T any](ctx context.Context, retry shared.RetryPolicy, logger *log.Logger, op string, fetch func(token string) ([]T, string, error)) ([]T, error) {
	var all []T
	token := ""

	for page := 1; ; page++ {
		var items []T
		var next string

		err := retry.Do(ctx, logger, op, func() error {
			var err error
			items, next, err = fetch(token)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s (page %d): %w", shared.ErrAPIRequest, op, page, err)
		}

		all = append(all, items...)
		logger.Debug("fetched page", "op", op, "page", page, "items", len(items), "total", len(all))

		if next == "" {
			return all, nil
		}
		token = next
	}
}
