package orient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/imgnorm/internal/config"
	"github.com/backmassage/imgnorm/internal/decode"
	"github.com/backmassage/imgnorm/internal/logging"
	"github.com/backmassage/imgnorm/internal/runner/runnertest"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// tiffOrientation is a little-endian TIFF header with a one-entry IFD0
// holding tag 0x0112 (SHORT).
func tiffOrientation(o uint16) []byte {
	b := []byte{
		'I', 'I', 0x2a, 0x00, 0x08, 0x00, 0x00, 0x00, // header, IFD0 at 8
		0x01, 0x00, // one entry
		0x12, 0x01, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00, // Orientation, SHORT, count 1
		byte(o), byte(o >> 8), 0x00, 0x00, // value
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}
	return b
}

// jpegWithOrientation encodes a w x h JPEG and splices an APP1 Exif
// segment carrying orientation o right after SOI.
func jpegWithOrientation(t *testing.T, o uint16, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, img, nil); err != nil {
		t.Fatal(err)
	}
	payload := append([]byte("Exif\x00\x00"), tiffOrientation(o)...)
	seglen := len(payload) + 2
	app1 := append([]byte{0xff, 0xe1, byte(seglen >> 8), byte(seglen)}, payload...)

	raw := enc.Bytes()
	out := append([]byte{}, raw[:2]...)
	out = append(out, app1...)
	return append(out, raw[2:]...)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadOrientation_JPEG(t *testing.T) {
	for _, o := range []uint16{1, 3, 6, 8} {
		t.Run(fmt.Sprint(o), func(t *testing.T) {
			path := writeFile(t, "a.jpg", jpegWithOrientation(t, o, 4, 2))
			if got := ReadOrientation(path); got != int(o) {
				t.Errorf("got %d, want %d", got, o)
			}
		})
	}
}

func TestReadOrientation_EmbeddedInContainer(t *testing.T) {
	// No JPEG markers: only the brute-force search can find the block.
	data := []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic\x00\x00\x00\x10junkjunk")
	data = append(data, tiffOrientation(6)...)
	if got := ReadOrientationBytes(data); got != 6 {
		t.Errorf("got %d, want 6", got)
	}
}

func TestReadOrientation_Absent(t *testing.T) {
	cases := map[string][]byte{
		"garbage":      []byte("not an image at all"),
		"empty":        {},
		"out of range": append([]byte("Exif\x00\x00"), tiffOrientation(42)...),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if got := ReadOrientationBytes(data); got != OrientationNormal {
				t.Errorf("got %d, want 1", got)
			}
		})
	}
	if got := ReadOrientation(filepath.Join(t.TempDir(), "missing.jpg")); got != OrientationNormal {
		t.Errorf("missing file: got %d, want 1", got)
	}
}

func TestDegrees(t *testing.T) {
	want := map[int]int{0: 0, 1: 0, 2: 0, 3: 180, 4: 0, 5: 0, 6: 90, 7: 0, 8: 270, 9: 0}
	for o, deg := range want {
		if got := Degrees(o); got != deg {
			t.Errorf("Degrees(%d) = %d, want %d", o, got, deg)
		}
	}
}

// redBlue is a 2x1 image: red on the left, blue on the right.
func redBlue() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, red)
	img.SetRGBA(1, 0, blue)
	return img
}

func TestRotate(t *testing.T) {
	cases := []struct {
		deg  int
		w, h int
		// expected colors in row-major order
		want []color.RGBA
	}{
		{0, 2, 1, []color.RGBA{red, blue}},
		{90, 1, 2, []color.RGBA{red, blue}},
		{180, 2, 1, []color.RGBA{blue, red}},
		{270, 1, 2, []color.RGBA{blue, red}},
		{-90, 1, 2, []color.RGBA{blue, red}},
		{450, 1, 2, []color.RGBA{red, blue}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.deg), func(t *testing.T) {
			got := Rotate(redBlue(), tc.deg)
			b := got.Bounds()
			if b.Dx() != tc.w || b.Dy() != tc.h {
				t.Fatalf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tc.w, tc.h)
			}
			i := 0
			for y := 0; y < tc.h; y++ {
				for x := 0; x < tc.w; x++ {
					if c := got.RGBAAt(x, y); c != tc.want[i] {
						t.Errorf("pixel (%d,%d) = %v, want %v", x, y, c, tc.want[i])
					}
					i++
				}
			}
		})
	}
}

func TestRotate_OffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 20, 12, 21))
	src.SetRGBA(10, 20, red)
	src.SetRGBA(11, 20, blue)
	got := Rotate(src, 90)
	if got.Bounds() != image.Rect(0, 0, 1, 2) {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	if got.RGBAAt(0, 0) != red || got.RGBAAt(0, 1) != blue {
		t.Errorf("pixels = %v %v", got.RGBAAt(0, 0), got.RGBAAt(0, 1))
	}
}

type stubDecoder struct {
	r   *decode.Raster
	err error
}

func (s stubDecoder) Decode(context.Context, string) (*decode.Raster, error) { return s.r, s.err }

func TestReadNormalized(t *testing.T) {
	ctx := context.Background()

	rotated := writeFile(t, "rot.jpg", jpegWithOrientation(t, 6, 2, 1))
	n := New(stubDecoder{r: &decode.Raster{Image: redBlue(), Strategy: decode.StrategyConverterFirst}}, logging.Discard())
	r, err := n.ReadNormalized(ctx, rotated)
	if err != nil {
		t.Fatal(err)
	}
	if r.Width() != 1 || r.Height() != 2 {
		t.Errorf("size = %dx%d, want 1x2", r.Width(), r.Height())
	}
	if _, ok := r.Image.(*image.RGBA); !ok {
		t.Errorf("rotated image type = %T, want *image.RGBA", r.Image)
	}
	if r.Strategy != decode.StrategyConverterFirst {
		t.Errorf("strategy = %s, want it preserved", r.Strategy)
	}

	upright := writeFile(t, "up.jpg", jpegWithOrientation(t, 1, 2, 1))
	orig := &decode.Raster{Image: redBlue(), Strategy: decode.StrategyNative}
	r, err = New(stubDecoder{r: orig}, nil).ReadNormalized(ctx, upright)
	if err != nil {
		t.Fatal(err)
	}
	if r != orig {
		t.Error("orientation 1 should return the decoded raster untouched")
	}

	failing := New(stubDecoder{err: fmt.Errorf("%w: x", decode.ErrDecodeFailure)}, nil)
	if _, err := failing.ReadNormalized(ctx, upright); !errors.Is(err, decode.ErrDecodeFailure) {
		t.Errorf("err = %v, want ErrDecodeFailure", err)
	}
}

func TestReadNormalized_NativeJPEG(t *testing.T) {
	tools := config.DefaultConfig().Tools
	tools.TempDir = t.TempDir()
	dec := decode.New(tools, runnertest.New(), logging.Discard())
	n := New(dec, logging.Discard())

	path := writeFile(t, "portrait.jpg", jpegWithOrientation(t, 8, 6, 4))
	r, err := n.ReadNormalized(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if r.Strategy != decode.StrategyNative {
		t.Errorf("strategy = %s, want native", r.Strategy)
	}
	if r.Width() != 4 || r.Height() != 6 {
		t.Errorf("size = %dx%d, want 4x6", r.Width(), r.Height())
	}
}
