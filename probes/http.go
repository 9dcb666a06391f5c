package probes

import (
	"bytes"

	"github.com/sslh-go/protomux"
)

func init() {
	protomux.RegisterProbe("http", HTTP)
}

var httpNeedle = []byte("HTTP")

// httpMethods is tried in this exact order, matching spec.md §4.A.
var httpMethods = [][]byte{
	[]byte("OPTIONS"),
	[]byte("GET"),
	[]byte("HEAD"),
	[]byte("POST"),
	[]byte("PUT"),
	[]byte("DELETE"),
	[]byte("TRACE"),
	[]byte("CONNECT"),
}

// HTTP recognizes an HTTP request or response: MATCH if "HTTP" appears
// anywhere in the (bounded) prefix (catches status lines like
// "HTTP/1.1 200 OK" regardless of request framing). Otherwise, for each
// method in httpMethods: AGAIN if the buffer is shorter than the method,
// MATCH if the buffer starts with it (case-sensitive). NEXT if none of the
// methods match and the buffer is long enough to have ruled all of them
// out.
func HTTP(data []byte, _ *protomux.ProtocolEntry) protomux.ProbeOutcome {
	if bytes.Contains(bounded(data, maxSearchPrefix), httpNeedle) {
		return protomux.Match
	}
	for _, m := range httpMethods {
		if len(data) < len(m) {
			return protomux.Again
		}
		if bytes.HasPrefix(data, m) {
			return protomux.Match
		}
	}
	return protomux.Next
}
