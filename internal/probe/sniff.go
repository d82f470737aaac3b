package probe

import (
	"bytes"
	"io"
	"os"
)

const sniffWindow = 64

// heifBrands are the ftyp major/compatible brands that mark a HEIF or AVIF
// container.
var heifBrands = [][]byte{
	[]byte("heic"),
	[]byte("heix"),
	[]byte("heim"),
	[]byte("hevc"),
	[]byte("avif"),
}

// IsHeifOrAvif reports whether the file at path looks like a HEIF/AVIF
// container. Unreadable files and files shorter than 12 bytes are not.
func IsHeifOrAvif(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, sniffWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false
	}
	return HasHeifBrand(head[:n])
}

// HasHeifBrand applies the brand heuristic to the leading bytes of a file:
// it finds "ftyp" and looks for a HEIF/AVIF brand in the 12 bytes after it.
func HasHeifBrand(head []byte) bool {
	if len(head) < 12 {
		return false
	}
	if len(head) > sniffWindow {
		head = head[:sniffWindow]
	}
	i := bytes.Index(head, []byte("ftyp"))
	if i < 0 {
		return false
	}
	start := i + 4
	end := start + 12
	if end > len(head) {
		end = len(head)
	}
	brands := bytes.ToLower(head[start:end])
	for _, b := range heifBrands {
		if bytes.Contains(brands, b) {
			return true
		}
	}
	return false
}
