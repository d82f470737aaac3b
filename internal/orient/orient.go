// Package orient makes decoded rasters upright using the source's EXIF
// orientation.
package orient

import (
	"context"

	"github.com/backmassage/imgnorm/internal/decode"
)

// Decoder produces a raster from a source path. *decode.Decoder satisfies
// it.
type Decoder interface {
	Decode(ctx context.Context, path string) (*decode.Raster, error)
}

// Logger is the subset of logging.Logger the normalizer needs.
type Logger interface {
	Debug(string, ...interface{})
}

// Normalizer decodes a source and rotates the result upright.
type Normalizer struct {
	dec Decoder
	log Logger
}

// New returns a Normalizer around dec.
func New(dec Decoder, log Logger) *Normalizer {
	return &Normalizer{dec: dec, log: log}
}

// ReadNormalized decodes path and applies its EXIF orientation (3, 6 or 8).
// Decode errors, including decode.ErrDecodeFailure, are returned as is.
// Missing or unreadable metadata means no rotation.
func (n *Normalizer) ReadNormalized(ctx context.Context, path string) (*decode.Raster, error) {
	r, err := n.dec.Decode(ctx, path)
	if err != nil {
		return nil, err
	}
	o := ReadOrientation(path)
	deg := Degrees(o)
	if deg == 0 {
		return r, nil
	}
	if n.log != nil {
		n.log.Debug("%s: orientation %d, rotating %d°", path, o, deg)
	}
	return &decode.Raster{Image: Rotate(r.Image, deg), Strategy: r.Strategy}, nil
}
