// Package tasks runs the YouTube to Spotify transfer with real-time progress reporting.
//
// # Stages
//
// [Engine.Run] composes three stages over plain slices of records:
//
//  1. Source reader ([services.Source]): liked videos, owned playlists and their items
//  2. Catalog matcher ([matcher.Matcher]): one search per item, top result or no match
//  3. Destination writer ([Writer]): one new playlist per source collection, tracks appended in batches
//
// The liked videos are transferred first, then each playlist in the order YouTube lists them.
// Nothing is deduplicated and re-running creates new playlists.
//
// # Failures
//
// Fetch, playlist creation and search errors abort the run. A failed append batch is logged,
// counted in [AppendSummary] and the remaining batches are still sent.
//
// # Progress Reporting
//
// [ProgressUpdate] values are sent on an optional channel with select/default so reporting never blocks the run.
//
// # Run Report
//
// The optional [Recorder] receives every outcome. It is write-only: no run reads it back.
package tasks
