package decode

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/backmassage/imgnorm/internal/ffmpeg"
	"github.com/backmassage/imgnorm/internal/probe"
	"github.com/backmassage/imgnorm/internal/scratch"
)

// Frames whose size differs from the probed size by this factor or more are
// thumbnails or auxiliary images, not the primary picture.
const (
	minFrameRatio = 0.7
	maxFrameRatio = 1.4
)

var errFrameMismatch = errors.New("extracted frame size mismatch")

// AcceptFrame reports whether a w x h frame plausibly is the primary image
// of a source probed at expected. Unknown expected dimensions accept any
// frame; otherwise the larger of the two side ratios must lie strictly
// between 0.7 and 1.4.
func AcceptFrame(expected probe.Dimensions, w, h int) bool {
	if !expected.Known() {
		return true
	}
	rw := float64(w) / float64(max(1, expected.Width))
	rh := float64(h) / float64(max(1, expected.Height))
	r := max(rw, rh)
	return r > minFrameRatio && r < maxFrameRatio
}

// runInto runs argv and checks that it exited 0 and wrote into art.
func (d *Decoder) runInto(ctx context.Context, argv []string, art *scratch.Artifact) error {
	if d.run == nil {
		return errors.New("no command runner")
	}
	res, err := d.run.Run(ctx, argv)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		if hint := ffmpeg.Classify(res.Output); hint != ffmpeg.HintNone {
			return fmt.Errorf("%s exited %d: %s", argv[0], res.ExitCode, hint)
		}
		return fmt.Errorf("%s exited %d", argv[0], res.ExitCode)
	}
	if !art.Ready() {
		return fmt.Errorf("%s produced no output", argv[0])
	}
	return nil
}

func (d *Decoder) decodeArtifact(art *scratch.Artifact) (image.Image, error) {
	img, err := d.decodeFile(art.Path)
	if err != nil {
		return nil, fmt.Errorf("decode %s output: %w", art.Path, err)
	}
	return img, nil
}

// --- hdr-tonemap ---

type tonemapStrategy struct{ d *Decoder }

func (tonemapStrategy) Name() string { return StrategyTonemap }

func (s tonemapStrategy) Attempt(ctx context.Context, job *Job) (image.Image, error) {
	if s.d.mapper == nil || !s.d.mapper.Candidate(ctx, job.Path, job.Transfer) {
		return nil, nil
	}
	art, ok := s.d.mapper.ToTempPNG(ctx, job.Path, job.Stream.VideoIndex)
	if !ok {
		return nil, errors.New("no tone-mapped image produced")
	}
	defer art.Remove()
	return s.d.decodeArtifact(art)
}

// --- converter-first / converter-fallback ---

type converterStrategy struct {
	d       *Decoder
	name    string
	purpose string
}

func (s converterStrategy) Name() string { return s.name }

func (s converterStrategy) Attempt(ctx context.Context, job *Job) (image.Image, error) {
	bin := s.d.tools.HeifConvertPath
	if bin == "" {
		return nil, nil
	}
	return scratch.With(s.d.tools.TempDir, s.purpose, func(art *scratch.Artifact) (image.Image, error) {
		if err := s.d.runInto(ctx, ffmpeg.HeifConvertArgs(bin, job.Path, art.Path), art); err != nil {
			return nil, err
		}
		return s.d.decodeArtifact(art)
	})
}

// --- ffmpeg-extract ---

type extractStrategy struct{ d *Decoder }

func (extractStrategy) Name() string { return StrategyExtract }

func (s extractStrategy) Attempt(ctx context.Context, job *Job) (image.Image, error) {
	bin := s.d.tools.FFmpegPath
	if bin == "" {
		return nil, nil
	}
	return scratch.With(s.d.tools.TempDir, "ff", func(art *scratch.Artifact) (image.Image, error) {
		filter := ffmpeg.ExtractFilter(job.Transfer.IsHDR())
		argv := ffmpeg.ExtractFrameArgs(bin, job.Path, job.Stream.VideoIndex, filter, art.Path)
		if err := s.d.runInto(ctx, argv, art); err != nil {
			return nil, err
		}
		img, err := s.d.decodeArtifact(art)
		if err != nil {
			return nil, err
		}
		b := img.Bounds()
		if !AcceptFrame(job.Expected, b.Dx(), b.Dy()) {
			return nil, fmt.Errorf("%w: got %dx%d, expected %s", errFrameMismatch, b.Dx(), b.Dy(), job.Expected)
		}
		return img, nil
	})
}
