package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/backmassage/imgnorm/internal/display"
	"github.com/backmassage/imgnorm/internal/meta"
	"github.com/backmassage/imgnorm/internal/probe"
)

func (a *app) infoCmd() *cobra.Command {
	var decodeIt bool

	c := &cobra.Command{
		Use:   "info <file>",
		Short: "Print metadata and HDR/stream probe results for one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.info(cmd, args[0], decodeIt)
		},
	}
	c.Flags().BoolVar(&decodeIt, "decode", false, "Also run the decode pipeline and report the winning strategy")
	return c
}

func (a *app) info(cmd *cobra.Command, path string, decodeIt bool) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	m, err := meta.Read(path)
	if err != nil {
		return err
	}

	run := a.runner()
	prober := probe.NewProber(a.cfg.Tools, run, a.log)
	heif := probe.IsHeifOrAvif(path)
	if heif && (m.Width == 0 || m.Height == 0) {
		d := prober.ProbeDimensions(ctx, path)
		m.Width, m.Height = d.Width, d.Height
	}

	field(w, "File", path)
	field(w, "Format", orDash(m.Format))
	field(w, "Size", fmt.Sprintf("%s (%s)",
		display.FormatDimensions(m.Width, m.Height), display.FormatMegapixels(m.Width, m.Height)))
	field(w, "Orientation", fmt.Sprint(m.Orientation))
	if m.TakenAt != nil {
		field(w, "Taken", m.TakenAt.Format("2006-01-02 15:04:05"))
	}
	if m.Make != "" || m.Model != "" {
		field(w, "Camera", m.Make+" "+m.Model)
	}
	if m.Lat != nil && m.Lng != nil {
		field(w, "GPS", fmt.Sprintf("%.6f, %.6f", *m.Lat, *m.Lng))
	}

	if heif {
		gain := probe.NewGainMapDetector(a.cfg.Tools, run, a.log)

		sel := prober.PickBestStream(ctx, path)
		raw := prober.ProbeColorTransfer(ctx, path, sel.VideoIndex)
		kind := probe.ClassifyTransfer(raw)

		field(w, "Container", "HEIF/AVIF")
		if sel.Area() > 0 {
			field(w, "Best stream", fmt.Sprintf("#%d (v:%d) %s",
				sel.Index, sel.VideoIndex, display.FormatDimensions(sel.Width, sel.Height)))
		}
		field(w, "Transfer", fmt.Sprintf("%s (%s)", orDash(raw), kind))
		hasGainMap := gain.HasHDRGainMap(ctx, path)
		field(w, "Gain map", yesNo(hasGainMap))
		field(w, "HDR tonemap", yesNo(kind.IsHDR() || hasGainMap))
	}

	if decodeIt {
		r, err := a.normalizer(run).ReadNormalized(ctx, path)
		if err != nil {
			return err
		}
		field(w, "Decoded", fmt.Sprintf("%s via %s",
			display.FormatDimensions(r.Width(), r.Height()), r.Strategy))
	}
	return nil
}

func field(w io.Writer, name, value string) {
	fmt.Fprintf(w, "%-12s %s\n", name+":", value)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
