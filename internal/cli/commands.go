package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backmassage/imgnorm/internal/check"
	"github.com/backmassage/imgnorm/internal/pipeline"
	"github.com/backmassage/imgnorm/internal/probe"
)

func (a *app) analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <input>",
		Short: "Print a metadata table for every image under input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prober := probe.NewProber(a.cfg.Tools, a.runner(), a.log)
			pipeline.Analyze(cmd.Context(), args[0], prober, cmd.OutOrStdout(), a.log)
			return nil
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report which external decode tools are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !check.RunCheck(cmd.Context(), &a.cfg, a.runner(), a.log) {
				return errors.New("system check failed")
			}
			return nil
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// No config or logger needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "imgnorm %s (%s)\n", a.version, a.commit)
		},
	}
}
