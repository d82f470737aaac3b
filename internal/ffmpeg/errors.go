package ffmpeg

import "regexp"

// Pre-compiled regexes for classifying converter output into a one-line
// hint for WARN logs. Checked in order by [Classify].
var (
	reMissingZscale = regexp.MustCompile(
		`(?i)No such filter: '?zscale'?|Filter not found.*zscale`)

	reNoStream = regexp.MustCompile(
		`(?i)Stream map '[^']*' matches no streams|` +
			`Output file( #\d+)? does not contain any stream|` +
			`matches no streams`)

	reMissingDecoder = regexp.MustCompile(
		`(?i)Decoder \(codec [^)]*\) not found|` +
			`Decoding requested, but no decoder found|` +
			`No decoder for codec|` +
			`Could not find codec parameters`)

	reInvalidInput = regexp.MustCompile(
		`(?i)Invalid data found when processing input|` +
			`moov atom not found|` +
			`Could not decode HEIF image|` +
			`Invalid input: .*`)

	reNoSuchFile = regexp.MustCompile(`(?i)No such file or directory`)
)

// Hint values returned by [Classify].
const (
	HintNone          = ""
	HintMissingZscale = "ffmpeg lacks the zscale filter (build with libzimg)"
	HintNoStream      = "requested video stream does not exist"
	HintNoDecoder     = "no decoder for the source codec"
	HintInvalidInput  = "input is corrupt or not a supported container"
	HintNoSuchFile    = "input file not found"
)

var hints = []struct {
	re   *regexp.Regexp
	hint string
}{
	{reMissingZscale, HintMissingZscale},
	{reNoStream, HintNoStream},
	{reMissingDecoder, HintNoDecoder},
	{reInvalidInput, HintInvalidInput},
	{reNoSuchFile, HintNoSuchFile},
}

// Classify returns a short hint describing why a converter failed, or
// HintNone when the output matches no known pattern.
func Classify(output string) string {
	for _, h := range hints {
		if h.re.MatchString(output) {
			return h.hint
		}
	}
	return HintNone
}

// MatchMissingZscale reports whether output shows the tonemap chain failed
// because zscale is unavailable.
func MatchMissingZscale(output string) bool {
	return reMissingZscale.MatchString(output)
}
