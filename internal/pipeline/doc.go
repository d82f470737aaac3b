// Package pipeline orchestrates batch normalization: file discovery,
// per-file decode and orientation, optional downscaling, output writing and
// summary reporting. It also provides the metadata analysis report.
//
// Files:
//   - discover.go  Discover (image extensions, hidden dirs pruned)
//   - runner.go    Run (sequential batch, skip-existing, stats)
//   - analyze.go   Analyze (metadata table with pixel-count outliers)
//   - stats.go     RunStats
package pipeline
