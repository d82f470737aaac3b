package ffmpeg

import "strconv"

// ExtractFrameArgs returns the ffmpeg argv that decodes the first frame of
// video stream videoIndex (an ordinal among video streams) from src through
// filter and writes it to dst. The output format follows dst's extension.
//
// A blank filter omits -vf.
func ExtractFrameArgs(ffmpegPath, src string, videoIndex int, filter, dst string) []string {
	args := make([]string, 0, 12)
	args = append(args, ffmpegPath, "-y", "-i", src, "-map", "0:v:"+strconv.Itoa(videoIndex))
	if filter != "" {
		args = append(args, "-vf", filter)
	}
	return append(args, "-frames:v", "1", dst)
}

// HeifConvertArgs returns the libheif heif-convert argv converting src to
// dst (primary image only).
func HeifConvertArgs(heifConvertPath, src, dst string) []string {
	return []string{heifConvertPath, src, dst}
}

// MergeScriptArgs returns the argv for a gain map merge script: the script
// reads an HDR source with a gain map and writes a tone-mapped SDR PNG.
func MergeScriptArgs(pythonPath, script, src, dst string) []string {
	return []string{pythonPath, script, src, dst}
}

// VersionArgs returns the argv printing a tool's version banner. exiftool
// uses -ver; every other tool accepts -version.
func VersionArgs(toolPath string, exiftool bool) []string {
	if exiftool {
		return []string{toolPath, "-ver"}
	}
	return []string{toolPath, "-version"}
}

// FilterListArgs returns the argv listing ffmpeg's compiled-in filters.
func FilterListArgs(ffmpegPath string) []string {
	return []string{ffmpegPath, "-hide_banner", "-filters"}
}
