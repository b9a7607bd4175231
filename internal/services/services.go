// package services defines the source and destination service interfaces
//
// YouTube (source), Spotify (destination)
package services

import (
	"context"

	"github.com/desertthunder/ytspot/internal/models"
)

// Source reads the user's collections from the video service.
type Source interface {
	// Favorites returns the items of the liked videos collection in server order.
	Favorites(ctx context.Context) ([]models.SourceTrack, error)

	// Collections returns the playlists owned by the authenticated user.
	Collections(ctx context.Context) ([]models.CollectionDescriptor, error)

	// CollectionItems returns the items of a playlist in server order.
	CollectionItems(ctx context.Context, id string) ([]models.SourceTrack, error)
}

// Searcher queries the destination catalog.
type Searcher interface {
	// SearchTracks returns at most limit tracks for a field-qualified query.
	// No results is an empty slice and a nil error.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Match, error)
}

// Destination creates collections and appends tracks in the audio service.
type Destination interface {
	Searcher

	// CreateCollection always creates a new public playlist owned by the current user.
	CreateCollection(ctx context.Context, name, description string) (*models.Collection, error)

	// AddTracks appends the track ids to a playlist in one request.
	AddTracks(ctx context.Context, collectionID string, trackIDs []string) error
}
