// Package meta reads the descriptive metadata of an image source: pixel
// size, capture time, GPS position and camera make/model.
package meta

import (
	"bytes"
	"image"
	_ "image/gif"  // register GIF with image.DecodeConfig
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"math"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP

	"github.com/backmassage/imgnorm/internal/orient"
	"github.com/backmassage/imgnorm/internal/probe"
)

// Info is the flat metadata record for one image. Pointer fields are nil
// and strings empty when the source does not carry the value.
type Info struct {
	Width  int
	Height int
	Format string // "jpeg", "png", ..., "heif" for sniffed HEIF/AVIF, or ""

	Lat     *float64
	Lng     *float64
	TakenAt *time.Time
	Make    string
	Model   string

	Orientation int // EXIF orientation, 1 when absent
}

// Read returns the metadata of the file at path. A read error is returned;
// unparsable content is not, it just leaves fields empty.
func Read(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{Orientation: orient.OrientationNormal}, err
	}
	return ReadBytes(data), nil
}

// ReadBytes is Read for an in-memory file.
func ReadBytes(data []byte) Info {
	info := Info{Orientation: orient.ReadOrientationBytes(data)}

	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		info.Width, info.Height, info.Format = cfg.Width, cfg.Height, format
	} else if probe.HasHeifBrand(head(data)) {
		info.Format = "heif"
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return info
	}
	if lat, lng, err := x.LatLong(); err == nil && !(lat == 0 && lng == 0) && !math.IsNaN(lat) && !math.IsNaN(lng) {
		info.Lat, info.Lng = &lat, &lng
	}
	if ts, err := x.DateTime(); err == nil && !ts.IsZero() {
		info.TakenAt = &ts
	}
	info.Make = stringTag(x, exif.Make)
	info.Model = stringTag(x, exif.Model)
	return info
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

func head(data []byte) []byte {
	if len(data) > 64 {
		return data[:64]
	}
	return data
}
