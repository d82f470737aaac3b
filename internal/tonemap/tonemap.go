// Package tonemap converts HDR sources (PQ/HLG transfer or an HDR gain map)
// into an SDR PNG that the in-process decoders can read.
package tonemap

import (
	"context"
	"strings"

	"github.com/backmassage/imgnorm/internal/config"
	"github.com/backmassage/imgnorm/internal/ffmpeg"
	"github.com/backmassage/imgnorm/internal/probe"
	"github.com/backmassage/imgnorm/internal/runner"
	"github.com/backmassage/imgnorm/internal/scratch"
)

// Runner executes an external tool. *runner.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, argv []string) (runner.Result, error)
}

// TransferProber reports a stream's raw color_transfer value.
type TransferProber interface {
	ProbeColorTransfer(ctx context.Context, path string, videoIndex int) string
}

// GainMapChecker reports whether a file carries HDR gain map metadata.
type GainMapChecker interface {
	HasHDRGainMap(ctx context.Context, path string) bool
}

// Logger is the subset of logging.Logger the mapper needs.
type Logger interface {
	Debug(string, ...interface{})
	Warn(string, ...interface{})
}

// Mapper decides whether a source needs tone mapping and produces the SDR
// PNG. Two routes exist, tried in order: the configured gain map merge
// script, then the ffmpeg zscale/tonemap chain.
type Mapper struct {
	tools    config.Tools
	run      Runner
	transfer TransferProber
	gainMap  GainMapChecker
	log      Logger
}

// New returns a Mapper. transfer and gainMap may be nil; a nil probe never
// reports HDR.
func New(tools config.Tools, run Runner, transfer TransferProber, gainMap GainMapChecker, log Logger) *Mapper {
	return &Mapper{tools: tools, run: run, transfer: transfer, gainMap: gainMap, log: log}
}

// IsHDRCandidate probes the transfer of video stream videoIndex and reports
// whether the source is HDR.
func (m *Mapper) IsHDRCandidate(ctx context.Context, path string, videoIndex int) bool {
	kind := probe.TransferUnknown
	if m.transfer != nil {
		kind = probe.ClassifyTransfer(m.transfer.ProbeColorTransfer(ctx, path, videoIndex))
	}
	return m.Candidate(ctx, path, kind)
}

// Candidate reports whether a source with an already probed transfer kind
// needs tone mapping: a PQ/HLG transfer, or an HDR gain map. The gain map
// is only checked when the transfer alone is not HDR.
func (m *Mapper) Candidate(ctx context.Context, path string, kind probe.TransferKind) bool {
	if kind.IsHDR() {
		return true
	}
	return m.gainMap != nil && m.gainMap.HasHDRGainMap(ctx, path)
}

// ToTempPNG writes a tone-mapped SDR PNG of video stream videoIndex into a
// new temp artifact. On success the caller owns the artifact and must
// Remove it. On failure nothing is left behind.
func (m *Mapper) ToTempPNG(ctx context.Context, path string, videoIndex int) (*scratch.Artifact, bool) {
	art, err := scratch.New(m.tools.TempDir, "tonemap")
	if err != nil {
		m.warn("tonemap: %v", err)
		return nil, false
	}

	if m.tools.GainmapMergeScript != "" && m.tools.PythonPath != "" {
		argv := ffmpeg.MergeScriptArgs(m.tools.PythonPath, m.tools.GainmapMergeScript, path, art.Path)
		if m.attempt(ctx, "merge script", argv, art) {
			return art, true
		}
	}

	if m.tools.FFmpegPath != "" {
		argv := ffmpeg.ExtractFrameArgs(m.tools.FFmpegPath, path, videoIndex, ffmpeg.TonemapChain, art.Path)
		if m.attempt(ctx, "ffmpeg tonemap", argv, art) {
			return art, true
		}
	}

	art.Remove()
	return nil, false
}

// attempt runs argv and reports whether it exited 0 and filled art.
func (m *Mapper) attempt(ctx context.Context, label string, argv []string, art *scratch.Artifact) bool {
	if m.run == nil {
		return false
	}
	res, err := m.run.Run(ctx, argv)
	if err != nil {
		m.warn("tonemap %s: %v", label, err)
		return false
	}
	if res.ExitCode != 0 {
		if hint := ffmpeg.Classify(res.Output); hint != ffmpeg.HintNone {
			m.warn("tonemap %s failed (exit %d): %s", label, res.ExitCode, hint)
		} else {
			m.debug("tonemap %s failed (exit %d): %s", label, res.ExitCode, strings.TrimSpace(res.Output))
		}
		return false
	}
	if !art.Ready() {
		m.debug("tonemap %s produced no output", label)
		return false
	}
	return true
}

func (m *Mapper) warn(format string, args ...interface{}) {
	if m.log != nil {
		m.log.Warn(format, args...)
	}
}

func (m *Mapper) debug(format string, args ...interface{}) {
	if m.log != nil {
		m.log.Debug(format, args...)
	}
}
