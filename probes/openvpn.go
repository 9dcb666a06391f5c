package probes

import (
	"encoding/binary"

	"github.com/sslh-go/protomux"
)

func init() {
	protomux.RegisterProbe("openvpn", OpenVPN)
}

// OpenVPN recognizes the first OpenVPN packet, which is length-prefixed:
// AGAIN if fewer than 2 bytes are available; else let L be the first two
// bytes as a big-endian uint16; MATCH iff L equals the number of bytes
// remaining after the length field, else NEXT.
//
// This matches only when the declared length equals len(data)-2 exactly —
// if the kernel delivered multiple OpenVPN packets in one read, this will
// incorrectly return NEXT. See DESIGN.md's Open Question resolution for why
// this is kept as-is rather than relaxed to a "<=" comparison.
func OpenVPN(data []byte, _ *protomux.ProtocolEntry) protomux.ProbeOutcome {
	if len(data) < 2 {
		return protomux.Again
	}
	l := binary.BigEndian.Uint16(data[:2])
	if int(l) == len(data)-2 {
		return protomux.Match
	}
	return protomux.Next
}
