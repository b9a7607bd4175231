// Package repositories implements SQLite persistence for the run report.
//
// Key Implementations:
//   - [RunRepository] : one row per transfer run with its final counters
//   - [OutcomeRepository] : one row per source item with its match status
//   - [ReportRecorder] : adapter that lets the transfer engine write both
//
// Rows are written during a run and only read back by the report command.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
