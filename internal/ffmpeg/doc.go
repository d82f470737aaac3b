// Package ffmpeg builds the argument vectors and filter graphs for the
// external converters used by the decode pipeline (ffmpeg, heif-convert,
// the gain map merge script) and classifies their failure output.
//
// Nothing here runs a process; callers pass the argv to runner.Runner.
//
// Files:
//   - builder.go  argv construction
//   - filter.go   -vf filter graphs (even scale, HDR tonemap chain)
//   - errors.go   regex classification of tool output into short hints
package ffmpeg
