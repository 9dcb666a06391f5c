package tls

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/sslh-go/protomux"
)

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint24(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v))
}

func buildHello(serverName string, alpn []string) []byte {
	var exts bytes.Buffer
	if serverName != "" {
		var sni bytes.Buffer
		sni.WriteByte(0x00)
		writeUint16(&sni, uint16(len(serverName)))
		sni.WriteString(serverName)
		var list bytes.Buffer
		writeUint16(&list, uint16(sni.Len()))
		list.Write(sni.Bytes())
		writeUint16(&exts, 0x0000)
		writeUint16(&exts, uint16(list.Len()))
		exts.Write(list.Bytes())
	}
	if len(alpn) > 0 {
		var list bytes.Buffer
		for _, p := range alpn {
			list.WriteByte(byte(len(p)))
			list.WriteString(p)
		}
		var payload bytes.Buffer
		writeUint16(&payload, uint16(list.Len()))
		payload.Write(list.Bytes())
		writeUint16(&exts, 0x0010)
		writeUint16(&exts, uint16(payload.Len()))
		exts.Write(payload.Bytes())
	}

	var body bytes.Buffer
	body.Write([]byte{0x03, 0x03})
	body.Write(make([]byte, 32))
	body.WriteByte(0x00)
	writeUint16(&body, 2)
	body.Write([]byte{0x00, 0x2f})
	body.WriteByte(0x01)
	body.WriteByte(0x00)
	writeUint16(&body, uint16(exts.Len()))
	body.Write(exts.Bytes())

	var hs bytes.Buffer
	hs.WriteByte(0x01)
	writeUint24(&hs, uint32(body.Len()))
	hs.Write(body.Bytes())

	var rec bytes.Buffer
	rec.WriteByte(0x16)
	rec.Write([]byte{0x03, 0x03})
	writeUint16(&rec, uint16(hs.Len()))
	rec.Write(hs.Bytes())
	return rec.Bytes()
}

func TestProbeNeedsMoreBytes(t *testing.T) {
	full := buildHello("example.com", nil)
	for _, n := range []int{0, 1, 4, 5, len(full) - 1} {
		if got := Probe(full[:n], &protomux.ProtocolEntry{}); got != protomux.Again {
			t.Fatalf("Probe(first %d bytes) = %s, want Again", n, got)
		}
	}
}

func TestProbeNotTLS(t *testing.T) {
	data := []byte("GET / HTTP/1.1\r\n\r\n")
	if got := Probe(data, &protomux.ProtocolEntry{}); got != protomux.Next {
		t.Fatalf("Probe(http) = %s, want Next", got)
	}
}

func TestProbeBadRecordVersion(t *testing.T) {
	full := buildHello("example.com", nil)
	bad := append([]byte{}, full...)
	bad[2] = 0x05 // minor version 5, out of {0..4}
	if got := Probe(bad, &protomux.ProtocolEntry{}); got != protomux.Next {
		t.Fatalf("Probe(bad minor version) = %s, want Next", got)
	}
}

func TestProbeSanityCapExceeded(t *testing.T) {
	data := []byte{0x16, 0x03, 0x03, 0xff, 0xff, 0x00}
	if got := Probe(data, &protomux.ProtocolEntry{}); got != protomux.Next {
		t.Fatalf("Probe(oversized record length) = %s, want Next", got)
	}
}

func TestProbeMatchesWithNoPolicy(t *testing.T) {
	full := buildHello("example.com", []string{"h2"})
	if got := Probe(full, &protomux.ProtocolEntry{}); got != protomux.Match {
		t.Fatalf("Probe(no policy) = %s, want Match", got)
	}
}

func TestProbeSNIPolicy(t *testing.T) {
	full := buildHello("api.example.com", nil)
	entry := &protomux.ProtocolEntry{Data: &Policy{SNIAllow: []string{"*.example.com"}}}
	if got := Probe(full, entry); got != protomux.Match {
		t.Fatalf("Probe(wildcard sni match) = %s, want Match", got)
	}

	entry2 := &protomux.ProtocolEntry{Data: &Policy{SNIAllow: []string{"other.example.com"}}}
	if got := Probe(full, entry2); got != protomux.Next {
		t.Fatalf("Probe(sni mismatch) = %s, want Next", got)
	}
}

func TestProbeSNICaseInsensitive(t *testing.T) {
	full := buildHello("Example.COM", nil)
	entry := &protomux.ProtocolEntry{Data: &Policy{SNIAllow: []string{"example.com"}}}
	if got := Probe(full, entry); got != protomux.Match {
		t.Fatalf("Probe(case-insensitive sni) = %s, want Match", got)
	}
}

func TestProbeALPNPolicy(t *testing.T) {
	full := buildHello("example.com", []string{"http/1.1", "h2"})
	entry := &protomux.ProtocolEntry{Data: &Policy{ALPNAllow: []string{"h2"}}}
	if got := Probe(full, entry); got != protomux.Match {
		t.Fatalf("Probe(alpn match) = %s, want Match", got)
	}

	entry2 := &protomux.ProtocolEntry{Data: &Policy{ALPNAllow: []string{"h3"}}}
	if got := Probe(full, entry2); got != protomux.Next {
		t.Fatalf("Probe(alpn mismatch) = %s, want Next", got)
	}
}

func TestProbeBothPoliciesRequired(t *testing.T) {
	full := buildHello("example.com", []string{"h2"})
	entry := &protomux.ProtocolEntry{Data: &Policy{SNIAllow: []string{"example.com"}, ALPNAllow: []string{"h3"}}}
	if got := Probe(full, entry); got != protomux.Next {
		t.Fatalf("Probe(sni ok, alpn mismatch) = %s, want Next", got)
	}
}

func TestMatchHostPatternWildcardIsSingleLabel(t *testing.T) {
	if matchHostPattern("*.example.com", "a.b.example.com") {
		t.Fatal("wildcard must match exactly one label, not multiple")
	}
	if !matchHostPattern("*.example.com", "a.example.com") {
		t.Fatal("wildcard should match exactly one label")
	}
}
