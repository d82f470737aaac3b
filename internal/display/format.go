package display

import (
	"fmt"
)

// FormatBytes returns a human-readable size (B, KiB, MiB, GiB, TiB, PiB).
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}

// FormatBytesWithSign prefixes with + or - for delta display (e.g. "- 1.2 MiB").
func FormatBytesWithSign(bytes int64) string {
	sign := ""
	if bytes > 0 {
		sign = "+ "
	} else if bytes < 0 {
		sign = "- "
		bytes = -bytes
	}
	return sign + FormatBytes(bytes)
}

// FormatDimensions returns "WxH", or "?" when either side is unknown.
func FormatDimensions(w, h int) string {
	if w <= 0 || h <= 0 {
		return "?"
	}
	return fmt.Sprintf("%dx%d", w, h)
}

// FormatMegapixels returns a pixel count in megapixels (e.g. "12.2 MP").
func FormatMegapixels(w, h int) string {
	if w <= 0 || h <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f MP", float64(w)*float64(h)/1e6)
}
