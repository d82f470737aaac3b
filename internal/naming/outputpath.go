package naming

import (
	"path/filepath"
	"strings"
)

// OutputPath returns where the normalized copy of path is written. When
// path lies under inputRoot its relative directory is kept; otherwise only
// the base name is used. ext is the output extension without dot.
//
//	inputRoot=/photos path=/photos/2024/IMG_1.HEIC → <outputDir>/2024/IMG_1.<ext>
func OutputPath(inputRoot, path, outputDir, ext string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	file := stem + "." + ext

	rel, err := filepath.Rel(inputRoot, filepath.Dir(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Join(outputDir, file)
	}
	return filepath.Join(outputDir, rel, file)
}

// Extension returns the file extension written for an output format name
// ("jpeg" → "jpg").
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "jpg"
	default:
		return strings.ToLower(format)
	}
}
