package models

// SourceTrack is a single item of a YouTube playlist.
type SourceTrack struct {
	ID      string `json:"id"`      // Video ID
	Title   string `json:"title"`   // Video title
	Channel string `json:"channel"` // Uploader label (videoOwnerChannelTitle)
}

// ArtistTitle is the pair used to build a catalog search query.
type ArtistTitle struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Match is the top catalog result for a [SourceTrack].
//
// The zero value is [NoMatch].
type Match struct {
	TrackID     string `json:"track_id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
}

// NoMatch is returned when the catalog search yields no candidates.
var NoMatch = Match{}

// Found reports whether the match refers to a catalog track.
func (m Match) Found() bool {
	return m.TrackID != ""
}

// Collection is a destination playlist created during a run.
type Collection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

// CollectionDescriptor describes a source playlist owned by the user.
type CollectionDescriptor struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ItemCount   int64  `json:"item_count"`
}
