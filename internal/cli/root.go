// Package cli wires the imgnorm cobra commands: configuration loading,
// logger setup and the normalize, info, analyze, check and version
// subcommands.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/backmassage/imgnorm/internal/config"
	"github.com/backmassage/imgnorm/internal/decode"
	"github.com/backmassage/imgnorm/internal/logging"
	"github.com/backmassage/imgnorm/internal/orient"
	"github.com/backmassage/imgnorm/internal/runner"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	version string
	commit  string

	cfg   config.Config
	flags config.FlagValues
	log   *logging.Logger

	// newLogger builds the logger once cfg is final; tests swap it.
	newLogger func(*config.Config) (*logging.Logger, error)
}

func newApp(version, commit string) *app {
	return &app{
		version:   version,
		commit:    commit,
		cfg:       config.DefaultConfig(),
		newLogger: logging.NewLogger,
	}
}

// Execute runs the command line args against a fresh root command.
// Cancelling ctx stops a running batch between files.
func Execute(ctx context.Context, version, commit string, args []string) error {
	return execute(ctx, newApp(version, commit), args, nil)
}

func execute(ctx context.Context, a *app, args []string, out io.Writer) error {
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	if out != nil {
		cmd.SetOut(out)
		cmd.SetErr(out)
	}
	defer a.close()
	return cmd.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "imgnorm",
		Short:         "Decode HEIC/AVIF/HDR and ordinary images into upright rasters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	config.BindToolFlags(cmd.PersistentFlags(), &a.cfg, &a.flags)

	cmd.AddCommand(
		a.normalizeCmd(),
		a.infoCmd(),
		a.analyzeCmd(),
		a.checkCmd(),
		a.versionCmd(),
	)
	return cmd
}

// setup resolves the final configuration (defaults < config file < flags),
// validates it and opens the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if a.flags.ConfigFile != "" {
		if err := config.LoadFile(a.flags.ConfigFile, &a.cfg); err != nil {
			return err
		}
	}
	config.ApplyFlags(cmd.Flags(), &a.flags, &a.cfg)

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	log, err := a.newLogger(&a.cfg)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

func (a *app) close() {
	if a.log != nil {
		_ = a.log.Close()
	}
}

// runner returns the shared external tool runner.
func (a *app) runner() *runner.Runner {
	return runner.New(a.cfg.Tools.Timeout(), a.log)
}

// normalizer builds the full decode and orientation stack.
func (a *app) normalizer(run *runner.Runner) *orient.Normalizer {
	return orient.New(decode.New(a.cfg.Tools, run, a.log), a.log)
}
