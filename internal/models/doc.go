// Package models defines the records that flow through a transfer and the persisted run report entities.
//
// The package contains two categories of types:
//
// 1. Transfer records: immutable values passed between the stages of a run
//   - [SourceTrack] : A video item read from a YouTube playlist
//   - [ArtistTitle] : The (title, artist) pair derived from a [SourceTrack]
//   - [Match] : The top Spotify search result for a pair, or [NoMatch]
//   - [Collection] : A destination Spotify playlist created by the run
//   - [CollectionDescriptor] : A source YouTube playlist owned by the user
//
// 2. Report entities: database-backed records of what a run did
//   - [Run] : One invocation of the transfer with its counters and status
//   - [Outcome] : The result for a single source item within a run
//
// Report entities implement the [Model] interface providing ID generation, timestamps and validation.
// The [Repository] interface defines the data access operations for them.
// Report entities are written during a run and only read back by reporting commands.
package models
