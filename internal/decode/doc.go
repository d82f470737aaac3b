// Package decode turns an image source into an in-memory raster by trying
// progressively more expensive strategies until one yields a plausible
// image.
//
// Order of attempts for a single call:
//
//  1. native              in-process codecs (JPEG, PNG, GIF, BMP, TIFF, WebP)
//  2. guard               HEIF/AVIF with no ffmpeg configured fails here
//  3. probe               dimensions, best stream, color transfer (once)
//  4. hdr-tonemap         merge script or ffmpeg tonemap, HDR sources only
//  5. converter-first     heif-convert
//  6. ffmpeg-extract      first frame of the best stream, size-checked
//  7. converter-fallback  heif-convert again, last resort
//
// Every temporary file a strategy creates is removed before that strategy
// returns. A strategy failure (non-zero exit, timeout, undecodable output)
// is logged and the next strategy runs.
package decode
