package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/backmassage/imgnorm/internal/display"
	"github.com/backmassage/imgnorm/internal/logging"
	"github.com/backmassage/imgnorm/internal/meta"
	"github.com/backmassage/imgnorm/internal/probe"
	"github.com/backmassage/imgnorm/internal/term"
)

// DimensionProber fills in pixel sizes the stdlib decoders cannot read
// (HEIF/AVIF). *probe.Prober satisfies it.
type DimensionProber interface {
	ProbeDimensions(ctx context.Context, path string) probe.Dimensions
}

// fileRow holds the per-file data for the analysis table.
type fileRow struct {
	Name        string
	Format      string
	Width       int
	Height      int
	Orientation int
	Taken       string
	Camera      string
	GPS         bool
}

func (r fileRow) megapixels() float64 {
	return float64(r.Width) * float64(r.Height) / 1e6
}

// Analyze discovers images under input, reads their metadata, and prints a
// tabular report to w. Pixel counts far below or above the batch's
// interquartile range are highlighted; they usually mark thumbnails,
// screenshots or panoramas mixed into a photo library. dims may be nil.
func Analyze(ctx context.Context, input string, dims DimensionProber, w io.Writer, log *logging.Logger) {
	files, err := Discover(input)
	if err != nil {
		log.Error("File discovery failed: %v", err)
		return
	}
	if len(files) == 0 {
		log.Warn("No images found in %s", input)
		return
	}

	total := len(files)
	log.Info("Analyzing %d images in %s", total, input)

	isTTY := w == io.Writer(os.Stdout) && term.IsTerminal(os.Stdout)
	var rows []fileRow
	var skipped int
	var mpVals []float64

	for i, path := range files {
		if ctx.Err() != nil {
			if isTTY {
				clearProgress(w)
			}
			log.Warn("Interrupted")
			return
		}

		printProgress(w, isTTY, i+1, total, skipped, filepath.Base(path))

		info, err := meta.Read(path)
		if err != nil {
			skipped++
			if isTTY {
				clearProgress(w)
			}
			log.Warn("Skip (unreadable): %s", filepath.Base(path))
			continue
		}
		if (info.Width == 0 || info.Height == 0) && dims != nil {
			d := dims.ProbeDimensions(ctx, path)
			info.Width, info.Height = d.Width, d.Height
		}

		row := rowFromInfo(filepath.Base(path), info)
		rows = append(rows, row)
		if mp := row.megapixels(); mp > 0 {
			mpVals = append(mpVals, mp)
		}
	}

	if isTTY {
		clearProgress(w)
	}

	if len(rows) == 0 {
		log.Warn("No images could be read")
		return
	}

	stats := computeStats(mpVals)
	printAnalysisTable(w, rows, stats)
	printAnalysisSummary(log, rows, stats)
}

func rowFromInfo(name string, info meta.Info) fileRow {
	row := fileRow{
		Name:        name,
		Format:      info.Format,
		Width:       info.Width,
		Height:      info.Height,
		Orientation: info.Orientation,
		Camera:      strings.TrimSpace(info.Make + " " + info.Model),
		GPS:         info.Lat != nil && info.Lng != nil,
	}
	if row.Format == "" {
		row.Format = "?"
	}
	if info.TakenAt != nil {
		row.Taken = info.TakenAt.Format("2006-01-02 15:04")
	}
	return row
}

// iqrBounds holds the IQR-based thresholds for outlier classification.
type iqrBounds struct {
	q1, q3    float64
	outlierLo float64 // Q1 - 1.5*IQR
	outlierHi float64 // Q3 + 1.5*IQR
	extremeLo float64 // Q1 - 3.0*IQR
	extremeHi float64 // Q3 + 3.0*IQR
	valid     bool
}

func computeStats(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1

	return iqrBounds{
		q1:        q1,
		q3:        q3,
		outlierLo: q1 - 1.5*iqr,
		outlierHi: q3 + 1.5*iqr,
		extremeLo: q1 - 3.0*iqr,
		extremeHi: q3 + 3.0*iqr,
		valid:     iqr > 0,
	}
}

// classify returns "" (normal), "outlier", or "extreme" for a value.
func (b *iqrBounds) classify(v float64) string {
	if !b.valid || v <= 0 {
		return ""
	}
	if v < b.extremeLo || v > b.extremeHi {
		return "extreme"
	}
	if v < b.outlierLo || v > b.outlierHi {
		return "outlier"
	}
	return ""
}

func printAnalysisTable(w io.Writer, rows []fileRow, stats iqrBounds) {
	nameW := len("File")
	fmtW := len("Format")
	dimW := len("Size")
	mpW := len("Pixels")
	takenW := len("Taken")
	camW := len("Camera")

	for _, r := range rows {
		nameW = max(nameW, len(r.Name))
		fmtW = max(fmtW, len(r.Format))
		dimW = max(dimW, len(display.FormatDimensions(r.Width, r.Height)))
		mpW = max(mpW, len(display.FormatMegapixels(r.Width, r.Height)))
		takenW = max(takenW, len(r.Taken))
		camW = max(camW, len(r.Camera))
	}
	nameW = min(nameW, 50)
	camW = min(camW, 30)

	header := fmt.Sprintf("  %-*s  %-*s  %-*s  %-*s  %-3s  %-*s  %-*s  %s",
		nameW, "File",
		fmtW, "Format",
		dimW, "Size",
		mpW, "Pixels",
		"Ori",
		takenW, "Taken",
		camW, "Camera",
		"GPS",
	)
	separator := "  " + strings.Repeat("─", len(header)-2)

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, separator)

	for _, r := range rows {
		class := stats.classify(r.megapixels())

		// Pad the plain text first, then wrap in ANSI color so escape bytes
		// do not count toward the column width.
		mpCell := colorPad(display.FormatMegapixels(r.Width, r.Height), mpW, class)

		gps := ""
		if r.GPS {
			gps = "yes"
		}

		fmt.Fprintf(w, "  %-*s  %-*s  %-*s  %s  %-3d  %-*s  %-*s  %-3s  %s\n",
			nameW, truncate(r.Name, nameW),
			fmtW, r.Format,
			dimW, display.FormatDimensions(r.Width, r.Height),
			mpCell,
			r.Orientation,
			takenW, r.Taken,
			camW, truncate(r.Camera, camW),
			gps,
			formatFlag(class),
		)
	}
	fmt.Fprintln(w)
}

func printAnalysisSummary(log *logging.Logger, rows []fileRow, stats iqrBounds) {
	var outliers, extremes, rotated, unknown int
	for _, r := range rows {
		switch stats.classify(r.megapixels()) {
		case "extreme":
			extremes++
		case "outlier":
			outliers++
		}
		if r.Orientation > 1 {
			rotated++
		}
		if r.Width == 0 || r.Height == 0 {
			unknown++
		}
	}

	log.Info("Analyzed %d images", len(rows))
	if stats.valid {
		log.Info("  Pixel count IQR: %.1f to %.1f MP (outlier < %.1f or > %.1f)",
			stats.q1, stats.q3, stats.outlierLo, stats.outlierHi)
	}
	if rotated > 0 {
		log.Info("  %d image(s) carry a non-upright EXIF orientation", rotated)
	}
	if unknown > 0 {
		log.Warn("  %d image(s) with unknown dimensions", unknown)
	}
	if outliers > 0 {
		log.Warn("  %d outlier(s) flagged [*]", outliers)
	}
	if extremes > 0 {
		log.Error("  %d extreme outlier(s) flagged [!]", extremes)
	}
	if outliers == 0 && extremes == 0 {
		log.Success("  No outliers detected")
	}
}

func truncate(s string, width int) string {
	if len(s) > width {
		return s[:width-1] + "…"
	}
	return s
}

func formatFlag(class string) string {
	switch class {
	case "extreme":
		return term.Paint(term.Red, "[!]")
	case "outlier":
		return term.Paint(term.Yellow, "[*]")
	default:
		return ""
	}
}

// colorPad pads a plain string to width, then wraps it in ANSI color.
func colorPad(s string, width int, class string) string {
	padded := fmt.Sprintf("%-*s", width, s)
	switch class {
	case "extreme":
		return term.Paint(term.Red, padded)
	case "outlier":
		return term.Paint(term.Yellow, padded)
	default:
		return padded
	}
}

// printProgress shows a live read counter. On a TTY it writes an inline
// \r-overwritten line; otherwise it is a no-op.
func printProgress(w io.Writer, isTTY bool, current, total, skipped int, name string) {
	if !isTTY {
		return
	}
	pct := current * 100 / total
	status := fmt.Sprintf("  Reading [%d/%d] %d%% ", current, total, pct)
	if skipped > 0 {
		status += fmt.Sprintf("(%d skipped) ", skipped)
	}
	status += truncate(name, 40)

	// Pad to 80 chars to overwrite previous longer lines.
	if len(status) < 80 {
		status += strings.Repeat(" ", 80-len(status))
	}
	fmt.Fprintf(w, "\r%s", status)
}

// clearProgress erases the inline progress line on a TTY.
func clearProgress(w io.Writer) {
	fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", 80))
}

// percentile computes the p-th percentile using linear interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
