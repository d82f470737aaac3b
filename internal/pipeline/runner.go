package pipeline

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/backmassage/imgnorm/internal/config"
	"github.com/backmassage/imgnorm/internal/decode"
	"github.com/backmassage/imgnorm/internal/display"
	"github.com/backmassage/imgnorm/internal/logging"
	"github.com/backmassage/imgnorm/internal/naming"
)

// Normalizer produces an upright raster for a source. *orient.Normalizer
// satisfies it.
type Normalizer interface {
	ReadNormalized(ctx context.Context, path string) (*decode.Raster, error)
}

// Run is the top-level batch entry point. It discovers images under
// cfg.Input, normalizes each one sequentially and writes it to
// cfg.OutputDir. Cancellation stops the batch between files.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, norm Normalizer) RunStats {
	var stats RunStats

	files, err := Discover(cfg.Input)
	if err != nil {
		log.Error("File discovery failed: %v", err)
		return stats
	}

	stats.Total = len(files)
	root := inputRoot(cfg.Input)
	resolver := naming.NewCollisionResolver()

	logBatchHeader(cfg, log, &stats)

	for i, path := range files {
		stats.Current = i + 1

		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}

		processFile(ctx, cfg, log, norm, root, path, &stats, resolver)
	}

	logSummary(log, &stats)
	return stats
}

// processFile handles one image: validate → resolve output → decode →
// scale → save.
func processFile(
	ctx context.Context,
	cfg *config.Config,
	log *logging.Logger,
	norm Normalizer,
	root, path string,
	stats *RunStats,
	resolver *naming.CollisionResolver,
) {
	basename := filepath.Base(path)
	log.Info("[%d/%d] %s", stats.Current, stats.Total, basename)

	// --- Validate ---
	fi, err := os.Stat(path)
	if err != nil {
		log.Error("File not found: %s", path)
		stats.Failed++
		return
	}
	if fi.Size() == 0 {
		log.Error("Empty file: %s", path)
		stats.Failed++
		return
	}

	// --- Resolve output path ---
	outputPath := naming.OutputPath(root, path, cfg.OutputDir, naming.Extension(string(cfg.Format)))
	outputPath = resolver.Resolve(path, outputPath)

	if cfg.SkipExisting {
		if _, err := os.Stat(outputPath); err == nil {
			log.Warn("Skip (exists): %s", outputPath)
			stats.Skipped++
			return
		}
	}

	// --- Decode ---
	start := time.Now()
	r, err := norm.ReadNormalized(ctx, path)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			log.Warn("Interrupted while decoding %s", basename)
		case errors.Is(err, decode.ErrDecodeFailure):
			log.Error("No decoder could read %s", basename)
		default:
			log.Error("Decode failed: %v", err)
		}
		stats.Failed++
		return
	}
	img := scaleDown(r.Image, cfg.MaxSize)

	// --- Write ---
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		log.Error("Cannot create output directory: %v", err)
		stats.Failed++
		return
	}
	if err := imaging.Save(img, outputPath, imaging.JPEGQuality(cfg.JPEGQuality)); err != nil {
		log.Error("Cannot write %s: %v", outputPath, err)
		os.Remove(outputPath)
		stats.Failed++
		return
	}

	// --- Update stats ---
	var outSize int64
	if outInfo, err := os.Stat(outputPath); err == nil {
		outSize = outInfo.Size()
	}
	stats.TotalInputBytes += fi.Size()
	stats.TotalOutputBytes += outSize
	stats.Converted++
	stats.record(r.Strategy)

	b := img.Bounds()
	log.Success("%s -> %s (%s, %s, %s in %s)",
		basename, filepath.Base(outputPath),
		display.FormatDimensions(b.Dx(), b.Dy()), r.Strategy,
		display.FormatBytes(outSize), time.Since(start).Round(time.Millisecond))
}

// scaleDown fits img inside a maxSize square, keeping aspect ratio. Images
// already small enough, and maxSize <= 0, are returned unchanged.
func scaleDown(img image.Image, maxSize int) image.Image {
	if maxSize <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxSize && b.Dy() <= maxSize {
		return img
	}
	return resize.Thumbnail(uint(maxSize), uint(maxSize), img, resize.Bilinear)
}

// --- Logging helpers ---

func logBatchHeader(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	log.Info("Found %d images", stats.Total)

	format := string(cfg.Format)
	if cfg.Format == config.FormatJPEG {
		log.Info("Output: %s (quality %d) -> %s", format, cfg.JPEGQuality, cfg.OutputDir)
	} else {
		log.Info("Output: %s -> %s", format, cfg.OutputDir)
	}
	if cfg.MaxSize > 0 {
		log.Info("Max size: %d px (longest edge)", cfg.MaxSize)
	}

	t := cfg.Tools
	log.Info("Tools: %s", toolStates([][2]string{
		{"ffmpeg", t.FFmpegPath},
		{"ffprobe", t.FFprobePath},
		{"exiftool", t.ExiftoolPath},
		{"heif-convert", t.HeifConvertPath},
		{"merge script", t.GainmapMergeScript},
	}))
	if !cfg.SkipExisting {
		log.Info("Existing outputs: overwrite")
	}
}

// toolStates renders "name=on|off" pairs; a blank path is off.
func toolStates(tools [][2]string) string {
	parts := make([]string, len(tools))
	for i, t := range tools {
		state := "off"
		if t[1] != "" {
			state = "on"
		}
		parts[i] = t[0] + "=" + state
	}
	return strings.Join(parts, ", ")
}

func logSummary(log *logging.Logger, stats *RunStats) {
	log.Info("Processed %d of %d images: %d converted, %d skipped, %d failed",
		stats.Current, stats.Total, stats.Converted, stats.Skipped, stats.Failed)
	for _, name := range stats.Strategies() {
		log.Info("  %-18s %d", name, stats.ByStrategy[name])
	}
	if stats.Converted > 0 {
		log.Info("Input %s, output %s (%s)",
			display.FormatBytes(stats.TotalInputBytes),
			display.FormatBytes(stats.TotalOutputBytes),
			display.FormatBytesWithSign(-stats.SpaceSaved()))
	}
	if stats.Failed > 0 {
		log.Warn("%d image(s) could not be converted", stats.Failed)
	} else if stats.Converted > 0 {
		log.Success("Done")
	}
}
