package decode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/imgnorm/internal/config"
	"github.com/backmassage/imgnorm/internal/ffmpeg"
	"github.com/backmassage/imgnorm/internal/logging"
	"github.com/backmassage/imgnorm/internal/probe"
	"github.com/backmassage/imgnorm/internal/runner"
	"github.com/backmassage/imgnorm/internal/runner/runnertest"
	"github.com/backmassage/imgnorm/internal/scratch"
)

// heicHeader is enough of an ISO-BMFF ftyp box for the brand sniffer and
// nothing any in-process decoder accepts.
const heicHeader = "\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic\x00\x00\x00\x00"

func testTools(t *testing.T) config.Tools {
	t.Helper()
	tools := config.DefaultConfig().Tools
	tools.TempDir = t.TempDir()
	return tools
}

func writeHEIC(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.heic")
	if err := os.WriteFile(path, []byte(heicHeader), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ffprobeFor answers the three ffprobe queries the decoder makes.
func ffprobeFor(dims, streams, transfer string) runnertest.Func {
	return func(argv []string) (runner.Result, error) {
		joined := strings.Join(argv, " ")
		switch {
		case strings.Contains(joined, "stream=width,height"):
			return runner.Result{Output: dims}, nil
		case strings.Contains(joined, "stream=index,width,height"):
			return runner.Result{Output: streams}, nil
		case strings.Contains(joined, "stream=color_transfer"):
			return runner.Result{Output: transfer}, nil
		}
		return runner.Result{ExitCode: 1}, nil
	}
}

func assertClean(t *testing.T, dir string) {
	t.Helper()
	m, err := filepath.Glob(filepath.Join(dir, scratch.Pattern))
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 0 {
		t.Errorf("temp artifacts left behind: %v", m)
	}
}

func lastCall(fake *runnertest.Fake, tool string) []string {
	var last []string
	for _, c := range fake.Calls() {
		if c[0] == tool {
			last = c
		}
	}
	return last
}

func TestDecode_NativePassthrough(t *testing.T) {
	tools := testTools(t)
	path := filepath.Join(t.TempDir(), "plain.png")
	if err := runnertest.WritePNG(path, 4, 3); err != nil {
		t.Fatal(err)
	}
	fake := runnertest.New()
	d := New(tools, fake, logging.Discard())

	r, err := d.Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Strategy != StrategyNative || r.Width() != 4 || r.Height() != 3 {
		t.Errorf("got %s %dx%d, want native 4x3", r.Strategy, r.Width(), r.Height())
	}
	if n := len(fake.Calls()); n != 0 {
		t.Errorf("native decode should not run external tools, got %d calls", n)
	}
	assertClean(t, tools.TempDir)
}

func TestDecode_HDRTonemap(t *testing.T) {
	tools := testTools(t)
	fake := runnertest.New().
		Handle("ffprobe", ffprobeFor("64x48\n", "0x64x48\n", "smpte2084\n")).
		Handle("ffmpeg", runnertest.WritesPNG(64, 48)).
		Handle("heif-convert", runnertest.WritesPNG(64, 48))
	d := New(tools, fake, logging.Discard())

	r, err := d.Decode(context.Background(), writeHEIC(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Strategy != StrategyTonemap {
		t.Errorf("strategy = %s, want %s", r.Strategy, StrategyTonemap)
	}
	if got := strings.Join(lastCall(fake, "ffmpeg"), " "); !strings.Contains(got, ffmpeg.TonemapChain) {
		t.Errorf("ffmpeg argv missing tonemap chain: %s", got)
	}
	if fake.CallsTo("heif-convert") != 0 {
		t.Error("converter should not run after a successful tonemap")
	}
	if fake.CallsTo("exiftool") != 0 {
		t.Error("gain map check is unnecessary when the transfer is PQ")
	}
	assertClean(t, tools.TempDir)
}

func TestDecode_SDRFallsThroughToConverterFallback(t *testing.T) {
	tools := testTools(t)
	fake := runnertest.New().
		Handle("ffprobe", ffprobeFor("64x48\n", "0x64x48\n", "bt709\n")).
		Handle("exiftool", runnertest.Output("")).
		Handle("heif-convert", runnertest.Sequence(
			runnertest.Fail(1, "Could not decode HEIF image: Unsupported feature"),
			runnertest.WritesPNG(64, 48),
		)).
		// Half size: a thumbnail, not the primary image.
		Handle("ffmpeg", runnertest.WritesPNG(32, 24))
	d := New(tools, fake, logging.Discard())

	r, err := d.Decode(context.Background(), writeHEIC(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Strategy != StrategyConverterFallback {
		t.Errorf("strategy = %s, want %s", r.Strategy, StrategyConverterFallback)
	}
	if n := fake.CallsTo("heif-convert"); n != 2 {
		t.Errorf("heif-convert calls = %d, want 2", n)
	}
	if n := fake.CallsTo("ffmpeg"); n != 1 {
		t.Errorf("ffmpeg calls = %d, want 1", n)
	}
	got := strings.Join(lastCall(fake, "ffmpeg"), " ")
	if !strings.Contains(got, "-vf "+ffmpeg.EvenScale+" ") {
		t.Errorf("SDR extract should use the even scale only: %s", got)
	}
	assertClean(t, tools.TempDir)
}

func TestDecode_ExtractAccepted(t *testing.T) {
	tools := testTools(t)
	tools.HeifConvertPath = ""
	fake := runnertest.New().
		Handle("ffprobe", ffprobeFor("64x48\n", "0x32x32\n1x64x48\n", "arib-std-b67\n")).
		Handle("ffmpeg", runnertest.Sequence(
			runnertest.Fail(1, "[AVFilterGraph @ 0x1] No such filter: 'zscale'"),
			runnertest.WritesPNG(64, 48),
		))
	d := New(tools, fake, logging.Discard())

	r, err := d.Decode(context.Background(), writeHEIC(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Strategy != StrategyExtract {
		t.Errorf("strategy = %s, want %s", r.Strategy, StrategyExtract)
	}
	got := strings.Join(lastCall(fake, "ffmpeg"), " ")
	if !strings.Contains(got, "-map 0:v:1") {
		t.Errorf("extract should map the largest stream: %s", got)
	}
	if !strings.Contains(got, ffmpeg.ExtractFilter(true)) {
		t.Errorf("HDR extract should append the tonemap chain: %s", got)
	}
	assertClean(t, tools.TempDir)
}

func TestDecode_TimeoutDoesNotAbortCascade(t *testing.T) {
	tools := testTools(t)
	fake := runnertest.New().
		Handle("ffprobe", ffprobeFor("64x48\n", "0x64x48\n", "bt709\n")).
		Handle("exiftool", runnertest.Timeout()).
		Handle("ffmpeg", runnertest.Timeout()).
		Handle("heif-convert", runnertest.Sequence(
			runnertest.Timeout(),
			runnertest.WritesPNG(64, 48),
		))
	d := New(tools, fake, logging.Discard())

	r, err := d.Decode(context.Background(), writeHEIC(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Strategy != StrategyConverterFallback {
		t.Errorf("strategy = %s, want %s", r.Strategy, StrategyConverterFallback)
	}
	assertClean(t, tools.TempDir)
}

func TestDecode_AllStrategiesFail(t *testing.T) {
	tools := testTools(t)
	fake := runnertest.New().
		Handle("ffprobe", ffprobeFor("64x48\n", "0x64x48\n", "smpte2084\n")).
		Handle("ffmpeg", runnertest.Fail(1, "Invalid data found when processing input")).
		Handle("heif-convert", runnertest.Fail(1, ""))
	d := New(tools, fake, logging.Discard())

	path := writeHEIC(t)
	_, err := d.Decode(context.Background(), path)
	if !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("err = %v, want ErrDecodeFailure", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the source: %v", err)
	}
	assertClean(t, tools.TempDir)
}

func TestDecode_HeifWithoutFFmpeg(t *testing.T) {
	tools := testTools(t)
	tools.FFmpegPath = ""
	fake := runnertest.New().Handle("heif-convert", runnertest.WritesPNG(8, 8))
	d := New(tools, fake, logging.Discard())

	_, err := d.Decode(context.Background(), writeHEIC(t))
	if !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("err = %v, want ErrDecodeFailure", err)
	}
	if n := len(fake.Calls()); n != 0 {
		t.Errorf("no tool should run, got %d calls", n)
	}
}

func TestDecode_Cancelled(t *testing.T) {
	tools := testTools(t)
	fake := runnertest.New().Handle("heif-convert", runnertest.WritesPNG(8, 8))
	d := New(tools, fake, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Decode(ctx, writeHEIC(t))
	if !errors.Is(err, ErrDecodeFailure) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want ErrDecodeFailure wrapping context.Canceled", err)
	}
	assertClean(t, tools.TempDir)
}

func TestDecode_UndecodableConverterOutput(t *testing.T) {
	tools := testTools(t)
	tools.FFmpegPath = ""
	tools.FFprobePath = ""
	garbage := func(argv []string) (runner.Result, error) {
		return runner.Result{}, os.WriteFile(argv[len(argv)-1], []byte("not a png"), 0o644)
	}
	fake := runnertest.New().Handle("heif-convert", garbage)
	d := New(tools, fake, logging.Discard())

	// Not a HEIF header, so the ffmpeg guard does not apply.
	path := filepath.Join(t.TempDir(), "mystery.bin")
	if err := os.WriteFile(path, []byte("????????????????"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Decode(context.Background(), path); !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("err = %v, want ErrDecodeFailure", err)
	}
	if n := fake.CallsTo("heif-convert"); n != 2 {
		t.Errorf("heif-convert calls = %d, want 2", n)
	}
	assertClean(t, tools.TempDir)
}

func TestAcceptFrame(t *testing.T) {
	exp := probe.Dimensions{Width: 100, Height: 100}
	cases := []struct {
		name     string
		expected probe.Dimensions
		w, h     int
		want     bool
	}{
		{"exact", exp, 100, 100, true},
		{"lower bound exclusive", exp, 70, 70, false},
		{"just above lower bound", exp, 71, 71, true},
		{"just below upper bound", exp, 139, 139, true},
		{"upper bound exclusive", exp, 140, 140, false},
		{"larger side decides", exp, 50, 120, true},
		{"thumbnail", probe.Dimensions{Width: 1920, Height: 1080}, 960, 540, false},
		{"unknown accepts anything", probe.Dimensions{}, 5, 5000, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AcceptFrame(tc.expected, tc.w, tc.h); got != tc.want {
				t.Errorf("AcceptFrame(%v, %d, %d) = %v, want %v", tc.expected, tc.w, tc.h, got, tc.want)
			}
		})
	}
}
