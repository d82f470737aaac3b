package orient

import (
	"bytes"
	"os"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	rwexif "github.com/rwcarlsen/goexif/exif"
)

// Orientation values from EXIF tag 0x0112 that require a rotation.
const (
	OrientationNormal = 1
	OrientationRot180 = 3
	OrientationRot90  = 6 // rotate 90° clockwise to display
	OrientationRot270 = 8 // rotate 270° clockwise (90° counter-clockwise)
)

// ReadOrientation returns the EXIF orientation of the file at path, or
// OrientationNormal when the file has none or it cannot be read.
func ReadOrientation(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return OrientationNormal
	}
	return ReadOrientationBytes(data)
}

// ReadOrientationBytes is ReadOrientation for an in-memory file. JPEG and
// TIFF are parsed structurally; anything else (HEIF, AVIF, PNG eXIf) is
// searched for an embedded TIFF header.
func ReadOrientationBytes(data []byte) int {
	if o, ok := structuredOrientation(data); ok {
		return o
	}
	if o, ok := searchedOrientation(data); ok {
		return o
	}
	return OrientationNormal
}

func structuredOrientation(data []byte) (int, bool) {
	x, err := rwexif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, false
	}
	tag, err := x.Get(rwexif.Orientation)
	if err != nil {
		return 0, false
	}
	o, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return valid(o)
}

// searchedOrientation runs the go-exif brute-force search. The library
// panics on some malformed IFDs; those count as "no orientation".
func searchedOrientation(data []byte) (o int, ok bool) {
	defer func() {
		if recover() != nil {
			o, ok = 0, false
		}
	}()

	raw, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return 0, false
	}

	im := exifcommon.NewIfdMapping()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return 0, false
	}
	ti := exif.NewTagIndex()

	_, index, err := exif.Collect(im, ti, raw)
	if err != nil || index.RootIfd == nil {
		return 0, false
	}

	tags, err := index.RootIfd.FindTagWithName("Orientation")
	if err != nil || len(tags) == 0 {
		return 0, false
	}
	val, err := tags[0].Value()
	if err != nil {
		return 0, false
	}
	switch v := val.(type) {
	case []uint16:
		if len(v) > 0 {
			return valid(int(v[0]))
		}
	case uint16:
		return valid(int(v))
	}
	return 0, false
}

func valid(o int) (int, bool) {
	if o < 1 || o > 8 {
		return 0, false
	}
	return o, true
}

// Degrees returns the clockwise rotation that makes an image with EXIF
// orientation o upright. Mirrored orientations (2, 4, 5, 7) are left alone.
func Degrees(o int) int {
	switch o {
	case OrientationRot180:
		return 180
	case OrientationRot90:
		return 90
	case OrientationRot270:
		return 270
	default:
		return 0
	}
}
