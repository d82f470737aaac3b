package probe

import (
	"context"
	"strconv"

	"github.com/backmassage/imgnorm/internal/runner"
)

// Runner executes an external tool. *runner.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, argv []string) (runner.Result, error)
}

// Logger is the subset of logging.Logger the probes need.
type Logger interface {
	Debug(string, ...interface{})
}

// Dimensions is the pixel size of the first video stream. The zero value
// means unknown.
type Dimensions struct {
	Width  int
	Height int
}

// Known reports whether both sides are positive.
func (d Dimensions) Known() bool { return d.Width > 0 && d.Height > 0 }

// String returns "WxH", or "unknown".
func (d Dimensions) String() string {
	if !d.Known() {
		return "unknown"
	}
	return strconv.Itoa(d.Width) + "x" + strconv.Itoa(d.Height)
}

// StreamSelection identifies the largest-area video stream. Index is the
// absolute stream index ffprobe reports; VideoIndex is the stream's ordinal
// among video streams and is what "-map 0:v:N" expects. The zero value
// selects the first video stream.
type StreamSelection struct {
	Index      int
	VideoIndex int
	Width      int
	Height     int
}

// Area returns Width*Height.
func (s StreamSelection) Area() int { return s.Width * s.Height }
