package decode

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP with image.Decode

	"github.com/backmassage/imgnorm/internal/config"
	"github.com/backmassage/imgnorm/internal/probe"
	"github.com/backmassage/imgnorm/internal/runner"
	"github.com/backmassage/imgnorm/internal/scratch"
	"github.com/backmassage/imgnorm/internal/tonemap"
)

// ErrDecodeFailure is returned (wrapped with the source path) when every
// strategy has been exhausted.
var ErrDecodeFailure = errors.New("unable to decode image")

// Strategy names reported in Raster.Strategy.
const (
	StrategyNative            = "native"
	StrategyTonemap           = "hdr-tonemap"
	StrategyConverterFirst    = "converter-first"
	StrategyExtract           = "ffmpeg-extract"
	StrategyConverterFallback = "converter-fallback"
)

// Runner executes an external tool. *runner.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, argv []string) (runner.Result, error)
}

// Logger is the subset of logging.Logger the decoder needs.
type Logger interface {
	Debug(string, ...interface{})
	Info(string, ...interface{})
	Warn(string, ...interface{})
}

// StreamProber is the ffprobe surface the decoder uses.
type StreamProber interface {
	ProbeDimensions(ctx context.Context, path string) probe.Dimensions
	PickBestStream(ctx context.Context, path string) probe.StreamSelection
	ProbeColorTransfer(ctx context.Context, path string, videoIndex int) string
}

// ToneMapper is the HDR surface the decoder uses.
type ToneMapper interface {
	Candidate(ctx context.Context, path string, kind probe.TransferKind) bool
	ToTempPNG(ctx context.Context, path string, videoIndex int) (*scratch.Artifact, bool)
}

// Raster is a decoded image and the strategy that produced it.
type Raster struct {
	Image    image.Image
	Strategy string
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int { return r.Image.Bounds().Dx() }

// Height returns the raster height in pixels.
func (r *Raster) Height() int { return r.Image.Bounds().Dy() }

// Job carries what the probe step learned about one source. It is built
// once per Decode call and shared read-only by every strategy.
type Job struct {
	Path     string
	Expected probe.Dimensions
	Stream   probe.StreamSelection
	Transfer probe.TransferKind
}

// Strategy is one fallback tier. Attempt returns (nil, nil) when the tier
// does not apply to the job (tool not configured, SDR source for the
// tonemap tier) and an error when it ran and failed.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, job *Job) (image.Image, error)
}

// Decoder runs the decode cascade. It holds only configuration and is safe
// for concurrent use.
type Decoder struct {
	tools      config.Tools
	run        Runner
	prober     StreamProber
	mapper     ToneMapper
	log        Logger
	decodeFile func(path string) (image.Image, error)
	strategies []Strategy
}

// New wires a Decoder and its probes around run.
func New(tools config.Tools, run Runner, log Logger) *Decoder {
	prober := probe.NewProber(tools, run, log)
	gainMap := probe.NewGainMapDetector(tools, run, log)
	d := &Decoder{
		tools:      tools,
		run:        run,
		prober:     prober,
		mapper:     tonemap.New(tools, run, prober, gainMap, log),
		log:        log,
		decodeFile: decodeNative,
	}
	d.strategies = []Strategy{
		tonemapStrategy{d},
		converterStrategy{d: d, name: StrategyConverterFirst, purpose: "hc-first"},
		extractStrategy{d},
		converterStrategy{d: d, name: StrategyConverterFallback, purpose: "hc"},
	}
	return d
}

// decodeNative decodes with the codecs registered with package image.
// imaging registers BMP and TIFF on top of the standard JPEG/PNG/GIF.
// EXIF orientation is deliberately left alone; orient applies it.
func decodeNative(path string) (image.Image, error) {
	return imaging.Open(path)
}

// Decode returns the first raster a strategy produces for path. The error
// wraps ErrDecodeFailure when nothing worked, and also wraps ctx.Err() when
// the cascade stopped because ctx was cancelled.
func (d *Decoder) Decode(ctx context.Context, path string) (*Raster, error) {
	img, err := d.decodeFile(path)
	if err == nil {
		d.log.Debug("decoded %s natively", path)
		return &Raster{Image: img, Strategy: StrategyNative}, nil
	}
	d.log.Debug("native decode %s: %v", path, err)

	if probe.IsHeifOrAvif(path) && d.tools.FFmpegPath == "" {
		d.log.Warn("%s is HEIF/AVIF and no ffmpeg is configured", path)
		return nil, fmt.Errorf("%w: %s: HEIF/AVIF source needs ffmpeg", ErrDecodeFailure, path)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailure, path, err)
	}

	job := d.probe(ctx, path)

	for _, s := range d.strategies {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailure, path, err)
		}
		img, err := s.Attempt(ctx, job)
		if err != nil {
			d.log.Warn("%s: %s failed: %v", path, s.Name(), err)
			continue
		}
		if img == nil {
			continue
		}
		d.log.Debug("decoded %s via %s (%dx%d)", path, s.Name(), img.Bounds().Dx(), img.Bounds().Dy())
		return &Raster{Image: img, Strategy: s.Name()}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrDecodeFailure, path)
}

func (d *Decoder) probe(ctx context.Context, path string) *Job {
	job := &Job{
		Path:     path,
		Expected: d.prober.ProbeDimensions(ctx, path),
		Stream:   d.prober.PickBestStream(ctx, path),
	}
	job.Transfer = probe.ClassifyTransfer(d.prober.ProbeColorTransfer(ctx, path, job.Stream.VideoIndex))
	d.log.Debug("probe %s: expected=%s stream=v:%d transfer=%s", path, job.Expected, job.Stream.VideoIndex, job.Transfer)
	return job
}
