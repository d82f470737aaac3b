package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backmassage/imgnorm/internal/check"
	"github.com/backmassage/imgnorm/internal/config"
	"github.com/backmassage/imgnorm/internal/display"
	"github.com/backmassage/imgnorm/internal/pipeline"
)

func (a *app) normalizeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "normalize <input> <output_dir>",
		Short: "Decode every image under input and write upright copies to output_dir",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.normalize(cmd.Context(), cmd, args[0], args[1])
		},
	}
	config.BindOutputFlags(c.Flags(), &a.cfg, &a.flags)
	return c
}

func (a *app) normalize(ctx context.Context, cmd *cobra.Command, input, output string) error {
	a.cfg.Input = config.NormalizeDirArg(input)
	a.cfg.OutputDir = config.NormalizeDirArg(output)

	display.PrintBanner(cmd.OutOrStdout())

	// Input must exist, output is created if needed, and output must not
	// be inside input so a rerun does not pick up its own results.
	inputAbs, err := absPath(a.cfg.Input)
	if err != nil {
		return fmt.Errorf("input not found: %s", a.cfg.Input)
	}
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", a.cfg.OutputDir, err)
	}
	outputAbs, err := absPath(a.cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("cannot resolve output path %s: %w", a.cfg.OutputDir, err)
	}
	if within(inputAbs, outputAbs) {
		return fmt.Errorf("output directory %s is inside input %s", a.cfg.OutputDir, a.cfg.Input)
	}

	a.log.Info("=== imgnorm v%s (%s) ===", a.version, a.commit)
	a.log.Info("In:  %s", a.cfg.Input)
	a.log.Info("Out: %s", a.cfg.OutputDir)

	// Missing tools only disable the strategies that need them.
	if err := check.CheckDeps(&a.cfg); err != nil {
		a.log.Warn("%v; HEIF/AVIF sources may fail to decode", err)
	}

	stop := context.AfterFunc(ctx, func() {
		a.log.Warn("Received interrupt, finishing current file")
	})
	defer stop()

	stats := pipeline.Run(ctx, &a.cfg, a.log, a.normalizer(a.runner()))

	if ctx.Err() != nil {
		return errors.New("interrupted")
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d image(s) failed", stats.Failed, stats.Total)
	}
	return nil
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directory hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// within reports whether dir is root or lies below it.
func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
