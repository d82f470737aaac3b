package ffmpeg

import (
	"bufio"
	"strings"
)

// TonemapChain converts PQ/HLG BT.2020 input to SDR with a linear curve.
// It needs ffmpeg built with libzimg (the zscale filter).
const TonemapChain = "zscale=transfer=pq:matrix=bt2020nc:primaries=bt2020," +
	"tonemap=linear:desat=0"

// EvenScale rounds both dimensions down to even values; yuv420 sources
// with odd sizes otherwise fail to convert on some builds.
const EvenScale = "scale=trunc(iw/2)*2:trunc(ih/2)*2"

// ExtractFilter returns the -vf graph for single-frame extraction: the
// even scale, followed by the tonemap chain when the source is HDR.
func ExtractFilter(hdr bool) string {
	if hdr {
		return JoinFilters(EvenScale, TonemapChain)
	}
	return EvenScale
}

// JoinFilters joins non-empty filter expressions with commas.
func JoinFilters(filters ...string) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ",")
}

// HasFilter reports whether the output of "ffmpeg -filters" lists name.
// Each filter line looks like " ... zscale            V->V       Apply ...".
func HasFilter(filtersOutput, name string) bool {
	sc := bufio.NewScanner(strings.NewReader(filtersOutput))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
