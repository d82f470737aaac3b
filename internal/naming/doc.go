// Package naming maps discovered source images to output paths: the source
// tree layout is mirrored under the output directory, the extension is
// replaced by the output format's, and two sources that would land on the
// same file (IMG_1.HEIC and IMG_1.jpg) get distinct names.
package naming
