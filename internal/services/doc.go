// Package services defines the [Source] and [Destination] interfaces of a transfer and implements them
// for YouTube and Spotify on the official SDKs.
//
// # Source
//
// [YouTubeService] reads from the YouTube Data API v3 (google.golang.org/api/youtube/v3).
//
// The liked videos collection is not returned by the playlists listing; it is read through the reserved
// playlist id "LL". User collections come from playlists.list with mine=true.
//
// Every listing follows nextPageToken until the service stops returning one and concatenates the pages
// in server order. Each page request runs under a [shared.RetryPolicy] for transient failures
// (rate limiting, server errors, timeouts). A page that still fails aborts the fetch; no partial result is returned.
//
// # Destination
//
// [SpotifyService] writes through github.com/zmb3/spotify/v2.
//
// Playlists are always created, never looked up, so repeated runs produce duplicates.
// The current user id is looked up once per service.
//
// # Error Handling
//
// Services wrap SDK errors with [shared.ErrAPIRequest] using %w, so both the sentinel and the
// underlying *googleapi.Error or spotify.Error remain reachable through errors.Is and errors.As.
//
// # Authentication
//
// Services take authorized HTTP clients; token loading, refresh and consent live in package auth.
package services
