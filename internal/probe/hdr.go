package probe

import "strings"

// TransferKind classifies a stream's color_transfer characteristic.
type TransferKind int

const (
	TransferUnknown TransferKind = iota
	TransferSDR
	TransferPQ  // smpte2084 (HDR10, Dolby Vision base layer)
	TransferHLG // arib-std-b67
)

// ClassifyTransfer maps an ffprobe color_transfer value to a TransferKind,
// case-insensitively. An empty value is unknown; any unrecognized value is
// treated as SDR.
func ClassifyTransfer(s string) TransferKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return TransferUnknown
	case "smpte2084":
		return TransferPQ
	case "arib-std-b67":
		return TransferHLG
	default:
		return TransferSDR
	}
}

// IsHDR reports whether k needs tone mapping before display (PQ or HLG).
func (k TransferKind) IsHDR() bool {
	return k == TransferPQ || k == TransferHLG
}

func (k TransferKind) String() string {
	switch k {
	case TransferSDR:
		return "sdr"
	case TransferPQ:
		return "pq"
	case TransferHLG:
		return "hlg"
	default:
		return "unknown"
	}
}
