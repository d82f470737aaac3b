package meta

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// exifTIFF is a little-endian TIFF block whose IFD0 holds Make="Apple" and
// Orientation=6.
var exifTIFF = []byte{
	'I', 'I', 0x2a, 0x00, 0x08, 0x00, 0x00, 0x00,
	0x02, 0x00,
	0x0f, 0x01, 0x02, 0x00, 0x06, 0x00, 0x00, 0x00, 0x26, 0x00, 0x00, 0x00, // Make, ASCII, 6 bytes at 38
	0x12, 0x01, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00, // Orientation, SHORT, 6
	0x00, 0x00, 0x00, 0x00,
	'A', 'p', 'p', 'l', 'e', 0x00,
}

func jpegWithExif(t *testing.T, w, h int) []byte {
	t.Helper()
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
	payload := append([]byte("Exif\x00\x00"), exifTIFF...)
	n := len(payload) + 2
	raw := enc.Bytes()
	out := append([]byte{}, raw[:2]...)
	out = append(out, 0xff, 0xe1, byte(n>>8), byte(n))
	out = append(out, payload...)
	return append(out, raw[2:]...)
}

func TestReadBytes_JPEGWithExif(t *testing.T) {
	info := ReadBytes(jpegWithExif(t, 12, 8))
	if info.Width != 12 || info.Height != 8 || info.Format != "jpeg" {
		t.Errorf("size/format = %dx%d %q", info.Width, info.Height, info.Format)
	}
	if info.Make != "Apple" {
		t.Errorf("Make = %q, want Apple", info.Make)
	}
	if info.Model != "" {
		t.Errorf("Model = %q, want empty", info.Model)
	}
	if info.Orientation != 6 {
		t.Errorf("Orientation = %d, want 6", info.Orientation)
	}
	if info.Lat != nil || info.Lng != nil {
		t.Error("GPS should be absent")
	}
	if info.TakenAt != nil {
		t.Error("TakenAt should be absent")
	}
}

func TestRead_PlainPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 5, 7))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 5 || info.Height != 7 || info.Format != "png" {
		t.Errorf("got %+v", info)
	}
	if info.Orientation != 1 || info.Make != "" {
		t.Errorf("unexpected metadata: %+v", info)
	}
}

func TestReadBytes_HEIFHeaderOnly(t *testing.T) {
	info := ReadBytes([]byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic"))
	if info.Format != "heif" || info.Width != 0 {
		t.Errorf("got %+v", info)
	}
}

func TestRead_Missing(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}
