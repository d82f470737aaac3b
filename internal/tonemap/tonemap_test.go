package tonemap

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/imgnorm/internal/config"
	"github.com/backmassage/imgnorm/internal/ffmpeg"
	"github.com/backmassage/imgnorm/internal/logging"
	"github.com/backmassage/imgnorm/internal/probe"
	"github.com/backmassage/imgnorm/internal/runner/runnertest"
	"github.com/backmassage/imgnorm/internal/scratch"
)

type fixedTransfer string

func (f fixedTransfer) ProbeColorTransfer(context.Context, string, int) string { return string(f) }

type gainMapStub struct {
	has   bool
	calls int
}

func (g *gainMapStub) HasHDRGainMap(context.Context, string) bool {
	g.calls++
	return g.has
}

func testTools(t *testing.T) config.Tools {
	t.Helper()
	tools := config.DefaultConfig().Tools
	tools.TempDir = t.TempDir()
	tools.GainmapMergeScript = ""
	return tools
}

func leftovers(t *testing.T, dir string) []string {
	t.Helper()
	m, _ := filepath.Glob(filepath.Join(dir, scratch.Pattern))
	return m
}

func TestCandidate(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name         string
		kind         probe.TransferKind
		gainMap      bool
		want         bool
		wantGMCalled bool
	}{
		{"pq", probe.TransferPQ, false, true, false},
		{"hlg", probe.TransferHLG, false, true, false},
		{"sdr with gain map", probe.TransferSDR, true, true, true},
		{"sdr", probe.TransferSDR, false, false, true},
		{"unknown with gain map", probe.TransferUnknown, true, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gm := &gainMapStub{has: tc.gainMap}
			m := New(testTools(t), runnertest.New(), nil, gm, logging.Discard())
			if got := m.Candidate(ctx, "a.heic", tc.kind); got != tc.want {
				t.Errorf("Candidate = %v, want %v", got, tc.want)
			}
			if (gm.calls > 0) != tc.wantGMCalled {
				t.Errorf("gain map checked = %v, want %v", gm.calls > 0, tc.wantGMCalled)
			}
		})
	}

	m := New(testTools(t), runnertest.New(), nil, nil, nil)
	if m.Candidate(ctx, "a.heic", probe.TransferSDR) {
		t.Error("nil gain map checker should not report HDR")
	}
}

func TestIsHDRCandidate(t *testing.T) {
	ctx := context.Background()
	m := New(testTools(t), runnertest.New(), fixedTransfer("arib-std-b67"), &gainMapStub{}, nil)
	if !m.IsHDRCandidate(ctx, "a.heic", 0) {
		t.Error("HLG source should be a candidate")
	}
	m = New(testTools(t), runnertest.New(), fixedTransfer("bt709"), &gainMapStub{}, nil)
	if m.IsHDRCandidate(ctx, "a.heic", 0) {
		t.Error("bt709 source without gain map should not be a candidate")
	}
}

func TestToTempPNG_MergeScriptWins(t *testing.T) {
	tools := testTools(t)
	tools.GainmapMergeScript = "/opt/merge.py"
	fake := runnertest.New().
		Handle("python3", runnertest.WritesPNG(8, 6)).
		Handle("ffmpeg", runnertest.WritesPNG(8, 6))

	m := New(tools, fake, nil, nil, logging.Discard())
	art, ok := m.ToTempPNG(context.Background(), "a.heic", 0)
	if !ok || !art.Ready() {
		t.Fatal("expected a ready artifact")
	}
	defer art.Remove()

	if fake.CallsTo("ffmpeg") != 0 {
		t.Error("ffmpeg should not run when the merge script succeeds")
	}
	call := fake.Calls()[0]
	if call[1] != "/opt/merge.py" || call[2] != "a.heic" || call[3] != art.Path {
		t.Errorf("merge argv = %v", call)
	}
	if !strings.HasPrefix(filepath.Base(art.Path), "imgnorm-tonemap-") {
		t.Errorf("artifact name = %s", art.Path)
	}
}

func TestToTempPNG_FallsBackToFFmpeg(t *testing.T) {
	tools := testTools(t)
	tools.GainmapMergeScript = "/opt/merge.py"
	fake := runnertest.New().
		Handle("python3", runnertest.Fail(1, "Traceback (most recent call last)")).
		Handle("ffmpeg", runnertest.WritesPNG(8, 6))

	m := New(tools, fake, nil, nil, logging.Discard())
	art, ok := m.ToTempPNG(context.Background(), "a.heic", 2)
	if !ok {
		t.Fatal("expected ffmpeg tonemap to succeed")
	}
	defer art.Remove()

	var ff []string
	for _, c := range fake.Calls() {
		if c[0] == "ffmpeg" {
			ff = c
		}
	}
	got := strings.Join(ff, " ")
	if !strings.Contains(got, "-map 0:v:2") || !strings.Contains(got, "-vf "+ffmpeg.TonemapChain) {
		t.Errorf("ffmpeg argv = %s", got)
	}
}

func TestToTempPNG_Failures(t *testing.T) {
	cases := []struct {
		name   string
		ffmpeg runnertest.Func
	}{
		{"non-zero exit", runnertest.Fail(1, "No such filter: 'zscale'")},
		{"exit 0 without output", runnertest.Output("")},
		{"timeout", runnertest.Timeout()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tools := testTools(t)
			fake := runnertest.New().Handle("ffmpeg", tc.ffmpeg)
			m := New(tools, fake, nil, nil, logging.Discard())

			art, ok := m.ToTempPNG(context.Background(), "a.heic", 0)
			if ok || art != nil {
				t.Fatal("expected failure")
			}
			if got := leftovers(t, tools.TempDir); len(got) != 0 {
				t.Errorf("leftover artifacts: %v", got)
			}
		})
	}
}

func TestToTempPNG_NoToolsConfigured(t *testing.T) {
	tools := testTools(t)
	tools.FFmpegPath = ""
	fake := runnertest.New()
	m := New(tools, fake, nil, nil, nil)
	if _, ok := m.ToTempPNG(context.Background(), "a.heic", 0); ok {
		t.Fatal("expected failure with no tools")
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("unexpected calls: %v", fake.Calls())
	}
	if got := leftovers(t, tools.TempDir); len(got) != 0 {
		t.Errorf("leftover artifacts: %v", got)
	}
}
