// Package matcher maps YouTube items to Spotify catalog tracks.
//
// A [models.SourceTrack] becomes an [models.ArtistTitle] pair through an [ArtistFunc] ([DeriveArtist] by default).
// The pair is turned into one field-qualified [Query] and the top search result is accepted as the match.
// There is no scoring and no relaxed second query: an empty result is [models.NoMatch].
package matcher
