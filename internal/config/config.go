// Package config holds runtime configuration: defaults, the optional YAML
// config file, CLI flag binding, and validation. Defaults match the
// heif.cli.* properties of the service this tool was extracted from.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// --- Enum types for validated string fields ---

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// OutputFormat is the encoding used by the batch runner for written files.
type OutputFormat string

const (
	FormatJPEG OutputFormat = "jpeg" // Default; smallest thumbnails.
	FormatPNG  OutputFormat = "png"  // Lossless.
)

// Tools is the immutable set of external tool settings handed to the decode
// pipeline. It is copied by value into every component at construction and
// never modified afterwards, so it is safe to share between goroutines.
//
// An empty path disables the corresponding tool.
type Tools struct {
	FFmpegPath         string // Default: "ffmpeg". Generic frame extraction and tonemap fallback.
	FFprobePath        string // Default: "ffprobe". Dimensions, streams, color transfer.
	ExiftoolPath       string // Default: "exiftool". HDR gain-map detection.
	HeifConvertPath    string // Default: "heif-convert". Dedicated HEIF/AVIF converter.
	GainmapMergeScript string // Default: "" (disabled). Optional gain-map merge script.
	PythonPath         string // Default: "python3". Interpreter for GainmapMergeScript.
	TempDir            string // Default: "" (os.TempDir()). Where temp PNGs are created.
	TimeoutSec         int    // Default: 120. Shared by every external invocation.
}

// Timeout returns TimeoutSec as a duration.
func (t Tools) Timeout() time.Duration {
	return time.Duration(t.TimeoutSec) * time.Second
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid with a YAML file ([LoadFile]) and then with explicitly
// set CLI flags ([ApplyFlags]). Only Tools reaches the decode pipeline.
type Config struct {
	Tools Tools

	// Batch paths (set from positional args of "normalize").
	Input     string
	OutputDir string

	// Batch output.
	MaxSize      int          // Default: 0 (keep decoded size). Longest edge in pixels.
	Format       OutputFormat // Default: "jpeg".
	JPEGQuality  int          // Default: 90.
	SkipExisting bool         // Default: true. Cleared by --force.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.

	// ConfigFile is the YAML file given with --config, if any.
	ConfigFile string
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// the config file and CLI overrides are applied.
func DefaultConfig() Config {
	return Config{
		Tools: Tools{
			FFmpegPath:      "ffmpeg",
			FFprobePath:     "ffprobe",
			ExiftoolPath:    "exiftool",
			HeifConvertPath: "heif-convert",
			PythonPath:      "python3",
			TimeoutSec:      120,
		},
		Format:       FormatJPEG,
		JPEGQuality:  90,
		SkipExisting: true,
		ColorMode:    ColorAuto,
	}
}

// Validate checks enum fields and numeric ranges. Tool paths are trimmed;
// blank paths stay blank and disable the tool.
func (c *Config) Validate() error {
	c.Tools.FFmpegPath = strings.TrimSpace(c.Tools.FFmpegPath)
	c.Tools.FFprobePath = strings.TrimSpace(c.Tools.FFprobePath)
	c.Tools.ExiftoolPath = strings.TrimSpace(c.Tools.ExiftoolPath)
	c.Tools.HeifConvertPath = strings.TrimSpace(c.Tools.HeifConvertPath)
	c.Tools.GainmapMergeScript = strings.TrimSpace(c.Tools.GainmapMergeScript)
	c.Tools.PythonPath = strings.TrimSpace(c.Tools.PythonPath)

	if c.Tools.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout %d (must be a positive number of seconds)", c.Tools.TimeoutSec)
	}
	if c.Tools.GainmapMergeScript != "" && c.Tools.PythonPath == "" {
		return errors.New("gain-map merge script configured but no python interpreter set")
	}
	if c.Tools.TempDir != "" {
		fi, err := os.Stat(c.Tools.TempDir)
		if err != nil || !fi.IsDir() {
			return fmt.Errorf("temp dir %q is not a directory", c.Tools.TempDir)
		}
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	switch c.Format {
	case FormatJPEG, FormatPNG:
		// valid
	default:
		return errors.New("invalid output format (use 'jpeg' or 'png')")
	}

	if c.MaxSize < 0 {
		return fmt.Errorf("invalid max size %d (must be >= 0)", c.MaxSize)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("invalid JPEG quality %d (use 1-100)", c.JPEGQuality)
	}
	return nil
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}
