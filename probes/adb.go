package probes

import (
	"bytes"

	"github.com/sslh-go/protomux"
)

func init() {
	protomux.RegisterProbe("adb", ADB)
}

const (
	adbHeaderLen = 30 // 24-byte ADB header + 5-byte "host:" tag
	adbEmptyLen  = 24 // empty-message prefix length
)

var (
	adbCNXN  = []byte("CNXN")
	adbHost  = []byte("host:")
	adbEmpty = append(bytes.Repeat([]byte{0x00}, 20), 0xff, 0xff, 0xff, 0xff)
)

// ADBOptions is the opaque per-entry data an "adb" ProtocolEntry may carry.
// It implements protomux.ProbeData.
type ADBOptions struct {
	// DisableEmptyMessageHeuristic skips the offset-24 empty-message
	// re-check (spec.md §9's open question: the heuristic depends on a
	// specific client build). Off by default, matching spec.md's
	// unconditional description.
	DisableEmptyMessageHeuristic bool
}

func (*ADBOptions) ProbeData() {}

// ADB recognizes the ADB "host:" connect frame, with an optional
// empty-message-prefix variant observed in certain client builds
// (spec.md §4.A).
func ADB(data []byte, entry *protomux.ProtocolEntry) protomux.ProbeOutcome {
	if len(data) < adbHeaderLen {
		return protomux.Again
	}
	if isADBConnect(data, 0) {
		return protomux.Match
	}

	opts, _ := entry.Data.(*ADBOptions)
	if opts != nil && opts.DisableEmptyMessageHeuristic {
		return protomux.Next
	}

	if len(data) < adbHeaderLen+adbEmptyLen {
		return protomux.Again
	}
	if !bytes.Equal(data[:adbEmptyLen], adbEmpty) {
		return protomux.Next
	}
	if isADBConnect(data, adbEmptyLen) {
		return protomux.Match
	}
	return protomux.Next
}

// isADBConnect checks the CNXN/host: pattern starting at off, assuming the
// caller has already verified at least off+adbHeaderLen bytes are present.
func isADBConnect(data []byte, off int) bool {
	return bytes.HasPrefix(data[off:], adbCNXN) && bytes.Equal(data[off+24:off+29], adbHost)
}
