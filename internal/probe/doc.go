// Package probe inspects image sources before decoding: container brand
// sniffing, ffprobe stream geometry and color transfer, and exiftool gain
// map detection.
//
// Every probe degrades instead of failing: a missing tool, a timeout or
// unparsable output yields the zero value (or false), never an error. The
// decode pipeline treats a zero value as "unknown" and keeps going.
//
// Files:
//   - sniff.go    IsHeifOrAvif, HasHeifBrand (ftyp brand heuristic)
//   - prober.go   Prober: ProbeDimensions, PickBestStream, ProbeColorTransfer
//   - hdr.go      TransferKind, ClassifyTransfer
//   - gainmap.go  GainMapDetector: HasHDRGainMap
package probe
