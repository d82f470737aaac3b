// Package runnertest provides a scripted stand-in for runner.Runner so
// packages that shell out to ffmpeg, ffprobe, exiftool or heif-convert can
// be tested without those tools installed.
package runnertest

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"sync"

	"github.com/backmassage/imgnorm/internal/runner"
)

// Func handles one invocation of a faked tool.
type Func func(argv []string) (runner.Result, error)

// Fake dispatches each command on argv[0]. Tools without a handler fail the
// way a missing binary does.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]Func
	calls    [][]string
}

// New returns a Fake with no tools installed.
func New() *Fake {
	return &Fake{handlers: make(map[string]Func)}
}

// Handle installs fn for tool, replacing any earlier handler.
func (f *Fake) Handle(tool string, fn Func) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[tool] = fn
	return f
}

// Run implements the runner interface consumed by the decode packages.
func (f *Fake) Run(ctx context.Context, argv []string) (runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), argv...))
	fn := f.handlers[argv[0]]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return runner.Result{}, fmt.Errorf("%w: %s", runner.ErrCommandInterrupted, strings.Join(argv, " "))
	}
	if fn == nil {
		return runner.Result{}, fmt.Errorf("run %s: executable file not found in $PATH", argv[0])
	}
	return fn(argv)
}

// Calls returns every argv seen, in order.
func (f *Fake) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

// CallsTo counts the invocations of tool.
func (f *Fake) CallsTo(tool string) int {
	n := 0
	for _, c := range f.Calls() {
		if c[0] == tool {
			n++
		}
	}
	return n
}

// Output returns a handler that exits 0 printing out.
func Output(out string) Func {
	return func([]string) (runner.Result, error) {
		return runner.Result{Output: out}, nil
	}
}

// Fail returns a handler that exits with code, printing out.
func Fail(code int, out string) Func {
	return func([]string) (runner.Result, error) {
		return runner.Result{ExitCode: code, Output: out}, nil
	}
}

// Timeout returns a handler that behaves like a killed, timed-out process.
func Timeout() Func {
	return func(argv []string) (runner.Result, error) {
		return runner.Result{}, fmt.Errorf("%w: %s", runner.ErrCommandTimeout, strings.Join(argv, " "))
	}
}

// WritesPNG returns a handler that writes a w x h PNG to the last argument
// and exits 0, like a converter that succeeded.
func WritesPNG(w, h int) Func {
	return func(argv []string) (runner.Result, error) {
		if err := WritePNG(argv[len(argv)-1], w, h); err != nil {
			return runner.Result{ExitCode: 1, Output: err.Error()}, nil
		}
		return runner.Result{}, nil
	}
}

// Sequence returns a handler that delegates to fns in turn, repeating the
// last one once the list is exhausted.
func Sequence(fns ...Func) Func {
	var mu sync.Mutex
	i := 0
	return func(argv []string) (runner.Result, error) {
		mu.Lock()
		fn := fns[i]
		if i < len(fns)-1 {
			i++
		}
		mu.Unlock()
		return fn(argv)
	}
}

// WritePNG writes an opaque w x h PNG to path. The top-left pixel is red
// and the rest is gray so rotations can be told apart.
func WritePNG(path string, w, h int) error {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
