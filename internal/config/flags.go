package config

// This file binds CLI flags to a Config. Flags are grouped into tools,
// display, and batch output. Values are captured into a separate struct and
// copied onto the Config only when the user actually set them, so defaults
// and config-file values hold unless a flag overrides them.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// FlagValues holds raw flag values until [ApplyFlags] copies the ones the
// user set into a Config.
type FlagValues struct {
	ConfigFile string

	FFmpeg       string
	FFprobe      string
	Exiftool     string
	HeifConvert  string
	GainmapMerge string
	Python       string
	TempDir      string
	Timeout      int

	Verbose bool
	Color   ColorMode
	NoColor bool
	LogFile string

	MaxSize     int
	Format      OutputFormat
	JPEGQuality int
	Force       bool
}

// BindToolFlags registers the tool, config-file and display flags shared by
// every subcommand. Defaults shown in help text come from cfg.
func BindToolFlags(fs *pflag.FlagSet, cfg *Config, v *FlagValues) {
	fs.StringVar(&v.ConfigFile, "config", "", "YAML config file (heif.cli.* keys)")

	fs.StringVar(&v.FFmpeg, "ffmpeg", cfg.Tools.FFmpegPath, "ffmpeg binary (empty disables frame extraction)")
	fs.StringVar(&v.FFprobe, "ffprobe", cfg.Tools.FFprobePath, "ffprobe binary (empty disables probing)")
	fs.StringVar(&v.Exiftool, "exiftool", cfg.Tools.ExiftoolPath, "exiftool binary (empty disables gain-map detection)")
	fs.StringVar(&v.HeifConvert, "heif-convert", cfg.Tools.HeifConvertPath, "heif-convert binary (empty disables the dedicated converter)")
	fs.StringVar(&v.GainmapMerge, "gainmap-merge", cfg.Tools.GainmapMergeScript, "Gain-map merge script run as <python> <script> <src> <dst>")
	fs.StringVar(&v.Python, "python", cfg.Tools.PythonPath, "Interpreter for --gainmap-merge")
	fs.StringVar(&v.TempDir, "temp-dir", cfg.Tools.TempDir, "Directory for intermediate PNGs (default: system temp)")
	fs.IntVar(&v.Timeout, "timeout", cfg.Tools.TimeoutSec, "Timeout in seconds for each external command")

	v.Color = cfg.ColorMode
	fs.BoolVarP(&v.Verbose, "verbose", "v", false, "Verbose output")
	fs.Var(&colorModeValue{&v.Color}, "color", "Colored logs: auto | always | never")
	fs.BoolVar(&v.NoColor, "no-color", false, "Same as --color=never")
	fs.StringVarP(&v.LogFile, "log", "l", "", "Append logs to file")
}

// BindOutputFlags registers the batch output flags of the normalize command.
func BindOutputFlags(fs *pflag.FlagSet, cfg *Config, v *FlagValues) {
	v.Format = cfg.Format
	fs.IntVar(&v.MaxSize, "max-size", cfg.MaxSize, "Downscale so the longest edge is at most N pixels (0 keeps size)")
	fs.Var(&formatValue{&v.Format}, "format", "Output format: jpeg | png")
	fs.IntVarP(&v.JPEGQuality, "quality", "q", cfg.JPEGQuality, "JPEG quality (1-100)")
	fs.BoolVarP(&v.Force, "force", "f", false, "Overwrite existing output files")
}

// ApplyFlags copies every flag the user explicitly set from v into cfg.
// Call after [LoadFile] so flags take precedence over the config file.
func ApplyFlags(fs *pflag.FlagSet, v *FlagValues, cfg *Config) {
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("ffmpeg") {
		cfg.Tools.FFmpegPath = v.FFmpeg
	}
	if changed("ffprobe") {
		cfg.Tools.FFprobePath = v.FFprobe
	}
	if changed("exiftool") {
		cfg.Tools.ExiftoolPath = v.Exiftool
	}
	if changed("heif-convert") {
		cfg.Tools.HeifConvertPath = v.HeifConvert
	}
	if changed("gainmap-merge") {
		cfg.Tools.GainmapMergeScript = v.GainmapMerge
	}
	if changed("python") {
		cfg.Tools.PythonPath = v.Python
	}
	if changed("temp-dir") {
		cfg.Tools.TempDir = v.TempDir
	}
	if changed("timeout") {
		cfg.Tools.TimeoutSec = v.Timeout
	}

	if changed("verbose") {
		cfg.Verbose = v.Verbose
	}
	if changed("log") {
		cfg.LogFile = v.LogFile
	}
	if v.NoColor {
		cfg.ColorMode = ColorNever
	} else if changed("color") {
		cfg.ColorMode = v.Color
	}

	if changed("max-size") {
		cfg.MaxSize = v.MaxSize
	}
	if changed("format") {
		cfg.Format = v.Format
	}
	if changed("quality") {
		cfg.JPEGQuality = v.JPEGQuality
	}
	if v.Force {
		cfg.SkipExisting = false
	}
}

// pflag.Value adapters so enum types (ColorMode, OutputFormat) reject bad
// values at parse time.

type colorModeValue struct{ p *ColorMode }

func (c *colorModeValue) String() string { return string(*c.p) }
func (c *colorModeValue) Type() string   { return "mode" }
func (c *colorModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto":
		*c.p = ColorAuto
	case "always":
		*c.p = ColorAlways
	case "never":
		*c.p = ColorNever
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", s)
	}
	return nil
}

type formatValue struct{ p *OutputFormat }

func (f *formatValue) String() string { return string(*f.p) }
func (f *formatValue) Type() string   { return "format" }
func (f *formatValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "jpeg", "jpg":
		*f.p = FormatJPEG
	case "png":
		*f.p = FormatPNG
	default:
		return fmt.Errorf("invalid format %q (use 'jpeg' or 'png')", s)
	}
	return nil
}
