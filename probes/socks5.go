package probes

import "github.com/sslh-go/protomux"

func init() {
	protomux.RegisterProbe("socks5", SOCKS5)
}

// SOCKS5 recognizes a SOCKS5 client greeting: AGAIN if fewer than 2 bytes
// are available. Byte 0 must be 5 (else NEXT). Byte 1 is the advertised
// method count m, which must be in [1, 10] (else NEXT). AGAIN if fewer than
// 2+m bytes are available. Each of the m method bytes must be in [0, 9]
// (else NEXT). Otherwise MATCH.
func SOCKS5(data []byte, _ *protomux.ProtocolEntry) protomux.ProbeOutcome {
	if len(data) < 2 {
		return protomux.Again
	}
	if data[0] != 5 {
		return protomux.Next
	}
	m := int(data[1])
	if m < 1 || m > 10 {
		return protomux.Next
	}
	if len(data) < 2+m {
		return protomux.Again
	}
	for _, b := range data[2 : 2+m] {
		if b > 9 {
			return protomux.Next
		}
	}
	return protomux.Match
}
