package tasks

import (
	"fmt"

	"github.com/desertthunder/ytspot/internal/models"
)

// ProgressUpdate represents a progress event during a transfer.
//
// Used to send real-time updates to the CLI layer for display. Sends never block,
// so a slow consumer may miss updates; RunResult is the authoritative outcome.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchFavorites Phase = iota
	FetchCollections
	FetchItems
	CreateCollection
	MatchTracks
	AppendTracks
	Finished
)

func (p Phase) String() string {
	switch p {
	case FetchFavorites:
		return "fetch_favorites"
	case FetchCollections:
		return "fetch_collections"
	case FetchItems:
		return "fetch_items"
	case CreateCollection:
		return "create_collection"
	case MatchTracks:
		return "match_tracks"
	case AppendTracks:
		return "append_tracks"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

func fetchFavoritesUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFavorites,
		Step:    1,
		Total:   1,
		Message: "Fetching liked videos from YouTube...",
	}
}

func foundFavoritesUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFavorites,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d liked videos", count),
	}
}

func fetchCollectionsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCollections,
		Step:    1,
		Total:   1,
		Message: "Fetching playlists from YouTube...",
	}
}

func foundCollectionsUpdate(selected, total int) ProgressUpdate {
	msg := fmt.Sprintf("Found %d playlists", total)
	if selected != total {
		msg = fmt.Sprintf("Found %d playlists (%d selected)", total, selected)
	}
	return ProgressUpdate{
		Phase:   FetchCollections,
		Step:    1,
		Total:   1,
		Message: msg,
	}
}

func fetchItemsUpdate(step, total int, d models.CollectionDescriptor) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching items of %s...", step, total, d.Title),
		Data:    d,
	}
}

func createCollectionUpdate(c *models.Collection) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateCollection,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", c.Name, c.ID),
		Data:    c,
	}
}

func matchTrackUpdate(step, total int, pair models.ArtistTitle, m models.Match) ProgressUpdate {
	mark := "✗"
	if m.Found() {
		mark = "✓"
	}
	label := pair.Title
	if pair.Artist != "" {
		label = pair.Artist + " - " + pair.Title
	}
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, label),
		Data:    m,
	}
}

func appendTracksUpdate(name string, s AppendSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AppendTracks,
		Step:    s.Batches - s.FailedBatches,
		Total:   s.Batches,
		Message: fmt.Sprintf("Added %d tracks to %s (%d/%d batches)", s.Appended, name, s.Batches-s.FailedBatches, s.Batches),
		Data:    s,
	}
}

func finishedUpdate(r *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finished,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Transferred %d collections: %d matched, %d unmatched", len(r.Collections), r.Matched, len(r.Unmatched)),
		Data:    r,
	}
}
