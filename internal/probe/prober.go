package probe

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/backmassage/imgnorm/internal/config"
)

// fieldSep splits ffprobe CSV lines. "-of csv=s=x" joins with 'x', but some
// builds fall back to commas.
var fieldSep = regexp.MustCompile(`[x,]`)

// Prober runs ffprobe against image sources. All methods return zero values
// when ffprobe is not configured, cannot run, or prints something
// unexpected.
type Prober struct {
	ffprobe string
	run     Runner
	log     Logger
}

// NewProber returns a Prober using tools.FFprobePath.
func NewProber(tools config.Tools, run Runner, log Logger) *Prober {
	return &Prober{ffprobe: tools.FFprobePath, run: run, log: log}
}

// query runs ffprobe with args followed by path and returns its output, or
// false when the call did not complete with exit status 0.
func (p *Prober) query(ctx context.Context, path string, args ...string) (string, bool) {
	if p.ffprobe == "" || p.run == nil {
		return "", false
	}
	argv := append([]string{p.ffprobe}, args...)
	argv = append(argv, path)
	res, err := p.run.Run(ctx, argv)
	if err != nil {
		p.debug("ffprobe %s: %v", path, err)
		return "", false
	}
	if res.ExitCode != 0 {
		return "", false
	}
	return res.Output, true
}

// ProbeDimensions returns the width and height of the first video stream.
func (p *Prober) ProbeDimensions(ctx context.Context, path string) Dimensions {
	out, ok := p.query(ctx, path,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
	)
	if !ok {
		return Dimensions{}
	}
	d := parseDimensions(out)
	p.debug("ffprobe dimensions %s: %s", path, d)
	return d
}

// PickBestStream returns the video stream with the largest pixel area. On
// a tie the first stream listed wins.
func (p *Prober) PickBestStream(ctx context.Context, path string) StreamSelection {
	out, ok := p.query(ctx, path,
		"-v", "error",
		"-select_streams", "v",
		"-show_entries", "stream=index,width,height",
		"-of", "csv=s=x:p=0",
	)
	if !ok {
		return StreamSelection{}
	}
	sel := parseStreams(out)
	p.debug("ffprobe best stream %s: index=%d v:%d %dx%d", path, sel.Index, sel.VideoIndex, sel.Width, sel.Height)
	return sel
}

// ProbeColorTransfer returns the raw color_transfer value of video stream
// videoIndex (for example "smpte2084"), or "" when unavailable.
func (p *Prober) ProbeColorTransfer(ctx context.Context, path string, videoIndex int) string {
	out, ok := p.query(ctx, path,
		"-v", "error",
		"-select_streams", "v:"+strconv.Itoa(videoIndex),
		"-show_entries", "stream=color_transfer",
		"-of", "default=nw=1:nk=1",
	)
	if !ok {
		return ""
	}
	return parseTransfer(out)
}

func (p *Prober) debug(format string, args ...interface{}) {
	if p.log != nil {
		p.log.Debug(format, args...)
	}
}

// --- Output parsing ---

func parseDimensions(out string) Dimensions {
	line := firstLine(out)
	if line == "" {
		return Dimensions{}
	}
	parts := fieldSep.Split(line, -1)
	if len(parts) < 2 {
		return Dimensions{}
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return Dimensions{}
	}
	return Dimensions{Width: w, Height: h}
}

// parseStreams picks the largest "index x width x height" line. Every
// non-blank line is one video stream, so unparsable lines still advance the
// ordinal.
func parseStreams(out string) StreamSelection {
	var best StreamSelection
	found := false
	ordinal := 0
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v := ordinal
		ordinal++

		parts := fieldSep.Split(line, -1)
		if len(parts) < 3 {
			continue
		}
		idx, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		w, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		h, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil || err3 != nil || w <= 0 || h <= 0 {
			continue
		}
		if !found || w*h > best.Area() {
			best = StreamSelection{Index: idx, VideoIndex: v, Width: w, Height: h}
			found = true
		}
	}
	return best
}

// parseTransfer handles both "smpte2084" and "color_transfer=smpte2084".
func parseTransfer(out string) string {
	s := firstLine(out)
	if i := strings.IndexByte(s, '='); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
