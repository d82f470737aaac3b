// Package check provides system diagnostics (the "check" command) and
// pre-run dependency validation (CheckDeps) for the external decode tools:
// ffmpeg, ffprobe, exiftool, heif-convert and the gain map merge script.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/backmassage/imgnorm/internal/config"
	"github.com/backmassage/imgnorm/internal/ffmpeg"
	"github.com/backmassage/imgnorm/internal/runner"
	"github.com/backmassage/imgnorm/internal/scratch"
)

// Sentinel errors returned by CheckDeps when a configured tool is missing.
var (
	ErrFFmpegNotFound      = errors.New("ffmpeg not found")
	ErrFFprobeNotFound     = errors.New("ffprobe not found")
	ErrMergeScriptNotFound = errors.New("gain map merge script not found")
)

// lookPath is exec.LookPath; tests replace it.
var lookPath = exec.LookPath

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a recording logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// Runner executes an external tool. *runner.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, argv []string) (runner.Result, error)
}

// RunCheck prints the availability of every configured tool, whether
// ffmpeg can run the HDR tonemap chain, and whether the temp dir is
// writable. It is informational: every check runs regardless of earlier
// failures. The result is false when a configured tool is unusable.
func RunCheck(ctx context.Context, cfg *config.Config, run Runner, log Logger) bool {
	log.Info("=== System Check ===")
	t := cfg.Tools
	ok := true

	ok = checkTool(ctx, run, log, "ffmpeg", t.FFmpegPath, false) && ok
	ok = checkTool(ctx, run, log, "ffprobe", t.FFprobePath, false) && ok
	ok = checkTool(ctx, run, log, "exiftool", t.ExiftoolPath, true) && ok
	ok = checkHeifConvert(ctx, run, log, t.HeifConvertPath) && ok
	ok = checkMergeScript(log, t) && ok
	if t.FFmpegPath != "" {
		checkTonemapFilters(ctx, run, log, t.FFmpegPath)
	}
	ok = checkTempDir(log, t.TempDir) && ok

	if ok {
		log.Success("All configured tools are usable")
	}
	return ok
}

// checkTool resolves path and logs the first line of its version banner.
// A blank path means the tool is disabled, which is not a failure.
func checkTool(ctx context.Context, run Runner, log Logger, name, path string, exiftool bool) bool {
	if path == "" {
		log.Warn("%s: disabled", name)
		return true
	}
	if _, err := lookPath(path); err != nil {
		log.Error("%s not found (%s)", name, path)
		return false
	}
	res, err := run.Run(ctx, ffmpeg.VersionArgs(path, exiftool))
	if err != nil || res.ExitCode != 0 {
		log.Warn("%s found but version query failed: %v", name, describe(res, err))
		return false
	}
	log.Success("%s: %s", name, firstLine(res.Output))
	return true
}

// checkHeifConvert only resolves the binary: heif-convert has no version
// flag on older libheif releases and exits non-zero on unknown options.
func checkHeifConvert(_ context.Context, _ Runner, log Logger, path string) bool {
	if path == "" {
		log.Warn("heif-convert: disabled")
		return true
	}
	resolved, err := lookPath(path)
	if err != nil {
		log.Error("heif-convert not found (%s)", path)
		return false
	}
	log.Success("heif-convert: %s", resolved)
	return true
}

func checkMergeScript(log Logger, t config.Tools) bool {
	if t.GainmapMergeScript == "" {
		log.Info("Gain map merge script: not configured (ffmpeg tonemap only)")
		return true
	}
	if _, err := os.Stat(t.GainmapMergeScript); err != nil {
		log.Error("Gain map merge script %s: %v", t.GainmapMergeScript, err)
		return false
	}
	if _, err := lookPath(t.PythonPath); err != nil {
		log.Error("python interpreter not found (%s)", t.PythonPath)
		return false
	}
	log.Success("Gain map merge script: %s (via %s)", t.GainmapMergeScript, t.PythonPath)
	return true
}

// checkTonemapFilters lists ffmpeg's filters and reports whether the
// zscale and tonemap filters used for HDR sources are compiled in.
func checkTonemapFilters(ctx context.Context, run Runner, log Logger, ffmpegPath string) {
	res, err := run.Run(ctx, ffmpeg.FilterListArgs(ffmpegPath))
	if err != nil || res.ExitCode != 0 {
		log.Warn("Could not list ffmpeg filters: %v", describe(res, err))
		return
	}
	for _, name := range []string{"zscale", "tonemap"} {
		if ffmpeg.HasFilter(res.Output, name) {
			log.Success("ffmpeg filter %s: available", name)
		} else {
			log.Warn("ffmpeg filter %s: missing, HDR sources fall back to converters", name)
		}
	}
}

// checkTempDir creates and removes one artifact where the decoders will.
func checkTempDir(log Logger, dir string) bool {
	a, err := scratch.New(dir, "check")
	if err != nil {
		log.Error("Temp dir not writable: %v", err)
		return false
	}
	a.Remove()
	if dir == "" {
		dir = os.TempDir()
	}
	log.Success("Temp dir: %s", dir)
	return true
}

// CheckDeps is the pre-run validation: configured ffmpeg and ffprobe must
// resolve, and a configured merge script must exist. Blank paths disable a
// tool and pass. Returns a wrapped sentinel error on failure.
func CheckDeps(cfg *config.Config) error {
	t := cfg.Tools
	if t.FFmpegPath != "" {
		if _, err := lookPath(t.FFmpegPath); err != nil {
			return fmt.Errorf("%w: %s", ErrFFmpegNotFound, t.FFmpegPath)
		}
	}
	if t.FFprobePath != "" {
		if _, err := lookPath(t.FFprobePath); err != nil {
			return fmt.Errorf("%w: %s", ErrFFprobeNotFound, t.FFprobePath)
		}
	}
	if t.GainmapMergeScript != "" {
		if _, err := os.Stat(t.GainmapMergeScript); err != nil {
			return fmt.Errorf("%w: %s", ErrMergeScriptNotFound, t.GainmapMergeScript)
		}
	}
	return nil
}

// --- internal helpers ---

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func describe(res runner.Result, err error) string {
	if err != nil {
		return err.Error()
	}
	if line := firstLine(res.Output); line != "" {
		return fmt.Sprintf("exit %d: %s", res.ExitCode, line)
	}
	return fmt.Sprintf("exit %d", res.ExitCode)
}
