// Package runner executes external tools (ffmpeg, ffprobe, exiftool,
// heif-convert, merge scripts) with a shared timeout. Standard error is
// merged into standard output and captured as text.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Sentinel errors returned (wrapped) by [Runner.Run].
var (
	ErrCommandTimeout     = errors.New("command timeout")
	ErrCommandInterrupted = errors.New("command interrupted")
)

// waitDelay bounds how long Run waits for output pipes after the process
// has been killed; grandchildren holding the pipe open must not hang it.
const waitDelay = 2 * time.Second

// Logger is the subset of logging.Logger the runner needs.
type Logger interface {
	Info(string, ...interface{})
	Debug(string, ...interface{})
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	ExitCode int
	Output   string // stdout and stderr, interleaved as written.
}

// Runner runs commands with a fixed timeout. The zero Timeout disables the
// deadline. A Runner holds no mutable state and is safe for concurrent use.
type Runner struct {
	Timeout time.Duration
	Log     Logger
}

// New returns a Runner with the given timeout.
func New(timeout time.Duration, log Logger) *Runner {
	return &Runner{Timeout: timeout, Log: log}
}

// Run starts argv[0] with argv[1:] and waits for it to exit.
//
// A process still running when the timeout elapses is killed and the error
// wraps [ErrCommandTimeout]; if ctx is cancelled first the error wraps
// [ErrCommandInterrupted]. A process that cannot be started returns the
// exec error. A non-zero exit status is not an error: callers interpret
// Result.ExitCode.
func (r *Runner) Run(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 || argv[0] == "" {
		return Result{}, errors.New("empty command")
	}
	line := strings.Join(argv, " ")

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	out := buf.String()

	// The parent context is checked first: a caller cancellation that
	// happens to coincide with the deadline is reported as an interrupt.
	if ctx.Err() != nil {
		return Result{Output: out}, fmt.Errorf("%w: %s", ErrCommandInterrupted, line)
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Result{Output: out}, fmt.Errorf("%w after %s: %s", ErrCommandTimeout, r.Timeout, line)
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return Result{Output: out}, fmt.Errorf("run %s: %w", argv[0], err)
	}

	res := Result{ExitCode: cmd.ProcessState.ExitCode(), Output: out}
	r.logOutput(res)
	return res, nil
}

// logOutput reports captured output: a failing command's output at INFO so
// it shows up without --verbose, a successful command's at DEBUG.
func (r *Runner) logOutput(res Result) {
	if r.Log == nil {
		return
	}
	text := strings.TrimSpace(res.Output)
	if text == "" {
		return
	}
	if res.ExitCode != 0 {
		r.Log.Info("[cli] non-zero exit (%d) output:\n%s", res.ExitCode, text)
		return
	}
	r.Log.Debug("[cli] %s", text)
}
