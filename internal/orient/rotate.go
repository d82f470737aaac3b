package orient

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Rotate returns src rotated clockwise by deg degrees about its center,
// resampled bilinearly. For 90 and 270 the width and height swap. The
// result always has its origin at (0, 0).
func Rotate(src image.Image, deg int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	deg = ((deg % 360) + 360) % 360

	if deg == 0 {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Copy(dst, image.Point{}, src, b, draw.Src, nil)
		return dst
	}

	cos, sin := unitCircle(deg)
	outW, outH := w, h
	if deg == 90 || deg == 270 {
		outW, outH = h, w
	} else if deg != 180 {
		outW = int(math.Ceil(math.Abs(float64(w)*cos) + math.Abs(float64(h)*sin)))
		outH = int(math.Ceil(math.Abs(float64(w)*sin) + math.Abs(float64(h)*cos)))
	}
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))

	// Source-to-destination: move the source center to the origin, rotate
	// (y grows downward, so this turns clockwise on screen), then move the
	// origin to the destination center.
	cx := float64(b.Min.X) + float64(w)/2
	cy := float64(b.Min.Y) + float64(h)/2
	s2d := f64.Aff3{
		cos, -sin, float64(outW)/2 - cos*cx + sin*cy,
		sin, cos, float64(outH)/2 - sin*cx - cos*cy,
	}
	draw.BiLinear.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}

// unitCircle returns exact values for right angles so quarter turns map
// pixel centers onto pixel centers.
func unitCircle(deg int) (cos, sin float64) {
	switch deg {
	case 0:
		return 1, 0
	case 90:
		return 0, 1
	case 180:
		return -1, 0
	case 270:
		return 0, -1
	}
	rad := float64(deg) * math.Pi / 180
	return math.Cos(rad), math.Sin(rad)
}
