package probe

import (
	"context"
	"strings"

	"github.com/backmassage/imgnorm/internal/config"
)

// GainMapDetector asks exiftool whether a file carries HDR gain map tags
// (Apple HDRGainMap* in HEIC/JPEG sources).
type GainMapDetector struct {
	exiftool string
	run      Runner
	log      Logger
}

// NewGainMapDetector returns a detector using tools.ExiftoolPath.
func NewGainMapDetector(tools config.Tools, run Runner, log Logger) *GainMapDetector {
	return &GainMapDetector{exiftool: tools.ExiftoolPath, run: run, log: log}
}

// HasHDRGainMap reports whether exiftool exits 0 and prints at least one
// HDRGainMap tag. Any failure, or no exiftool configured, reports false.
func (g *GainMapDetector) HasHDRGainMap(ctx context.Context, path string) bool {
	if g.exiftool == "" || g.run == nil {
		return false
	}
	res, err := g.run.Run(ctx, []string{g.exiftool, "-s", "-G1", "-HDRGainMap*", path})
	if err != nil {
		if g.log != nil {
			g.log.Debug("exiftool %s: %v", path, err)
		}
		return false
	}
	return res.ExitCode == 0 && strings.TrimSpace(res.Output) != ""
}
