// Package tls implements the TLS record + ClientHello parser used by the
// "tls" probe: enough of the TLS wire format to extract SNI and ALPN and
// evaluate a configured allow-list, without completing a handshake.
package tls

import "encoding/binary"

const (
	recordTypeHandshake  = 0x16
	recordHeaderLen      = 5
	handshakeClientHello = 0x01
	handshakeHeaderLen   = 4
	randomLen            = 32

	// maxSanityRecordLen bounds how large a declared record length we'll
	// wait for before giving up and calling the input NEXT rather than
	// AGAIN forever (spec.md §7's "implementation-defined sanity cap").
	// TLS plaintext records are capped at 16384 bytes (RFC 8446 §5.1); a
	// ClientHello declaring more than that is not a real TLS client.
	maxSanityRecordLen = 16384
)

// clientHello is the parsed (not yet policy-evaluated) contents of a
// ClientHello relevant to probing: the first SNI host name and the full
// ALPN protocol list.
type clientHello struct {
	serverName string
	alpn       []string
}

// parseOutcome mirrors protomux.ProbeOutcome at the parser level, kept
// distinct so the parser itself (record.go, extensions.go) uses no protomux
// types (probe.go does that translation).
type parseOutcome int

const (
	parseAgain parseOutcome = iota
	parseNext
	parseOK
)

// parseClientHello attempts to parse a TLS record containing a ClientHello
// handshake message from the front of data, per spec.md §4.B steps 1-6.
//
// A wrong record type, a record minor version above 4, a declared record
// length above maxSanityRecordLen, or a handshake type other than
// ClientHello is reported as parseNext. A handshake header, handshake body
// or inner field whose declared length runs past the bytes available in the
// record is treated like truncation and reported as parseAgain.
func parseClientHello(data []byte) (parseOutcome, *clientHello) {
	if len(data) < recordHeaderLen {
		return parseAgain, nil
	}
	if data[0] != recordTypeHandshake {
		return parseNext, nil
	}
	minor := data[2]
	if minor > 4 {
		return parseNext, nil
	}
	recordLen := int(binary.BigEndian.Uint16(data[3:5]))
	if recordLen > maxSanityRecordLen {
		return parseNext, nil
	}
	if len(data) < recordHeaderLen+recordLen {
		return parseAgain, nil
	}
	record := data[recordHeaderLen : recordHeaderLen+recordLen]

	if len(record) < handshakeHeaderLen {
		return parseAgain, nil
	}
	if record[0] != handshakeClientHello {
		return parseNext, nil
	}
	hsLen := int(record[1])<<16 | int(record[2])<<8 | int(record[3])
	if hsLen > len(record)-handshakeHeaderLen {
		return parseAgain, nil
	}
	body := record[handshakeHeaderLen : handshakeHeaderLen+hsLen]

	ch, ok := parseClientHelloBody(body)
	if !ok {
		return parseAgain, nil
	}
	return parseOK, ch
}

// parseClientHelloBody walks the ClientHello body: 2-byte client version,
// 32-byte random, session id, cipher suites, compression methods, then the
// extensions block (spec.md §4.B step 5).
func parseClientHelloBody(body []byte) (*clientHello, bool) {
	off := 0

	if off+2 > len(body) {
		return nil, false
	}
	off += 2 // client version, unused

	if off+randomLen > len(body) {
		return nil, false
	}
	off += randomLen

	if off+1 > len(body) {
		return nil, false
	}
	sidLen := int(body[off])
	off++
	if off+sidLen > len(body) {
		return nil, false
	}
	off += sidLen

	if off+2 > len(body) {
		return nil, false
	}
	csLen := int(body[off])<<8 | int(body[off+1])
	off += 2
	if off+csLen > len(body) {
		return nil, false
	}
	off += csLen

	if off+1 > len(body) {
		return nil, false
	}
	compLen := int(body[off])
	off++
	if off+compLen > len(body) {
		return nil, false
	}
	off += compLen

	if off+2 > len(body) {
		return nil, false
	}
	extLen := int(body[off])<<8 | int(body[off+1])
	off += 2
	if off+extLen > len(body) {
		return nil, false
	}
	exts := body[off : off+extLen]

	ch := &clientHello{}
	if err := parseExtensions(exts, ch); err != nil {
		return nil, false
	}
	return ch, true
}
