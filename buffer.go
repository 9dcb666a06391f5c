package protomux

import (
	"context"
	"io"

	log "github.com/sirupsen/logrus"
)

// initialReadSize is the chunk size used for each read-and-accumulate pass.
// Grounded on other_examples' Ratio1 sni.go's defaultPreludeCap-style
// buffer sizing, scaled to a single TCP read.
const initialReadSize = 4096

// maxBufferSize bounds how much we will accumulate from a single client
// before giving up and falling back, so a client that never stops talking
// without matching anything cannot grow the deferred buffer unboundedly.
const maxBufferSize = 64 * 1024

// DeferredBuffer is a growable, append-only byte accumulator. Bytes read
// from the client are appended here and never mutated once written; on
// Match, the full contents are replayed verbatim to the selected backend.
type DeferredBuffer struct {
	data []byte
}

// Append adds b to the end of the buffer. b is copied; the caller's slice
// may be reused afterwards.
func (d *DeferredBuffer) Append(b []byte) {
	d.data = append(d.data, b...)
}

// Bytes returns the accumulated buffer. The returned slice must not be
// modified by the caller.
func (d *DeferredBuffer) Bytes() []byte {
	return d.data
}

// Len reports the number of bytes accumulated so far.
func (d *DeferredBuffer) Len() int {
	return len(d.data)
}

// DeferredConn is the minimal read surface ProbeConnection needs from a
// client connection: enough to do repeated non-blocking-ish reads.
type DeferredConn interface {
	Read(p []byte) (int, error)
}

// ProbeConnection performs read-and-arbitrate passes against conn until the
// arbiter returns Match, the context is done, or the read fails/returns
// EOF. On error or empty read before any Match, it short-circuits to the
// last configured entry per spec.md §4.E, so the caller can still open a
// backend (which will then observe the same failure). The returned
// DeferredBuffer holds everything read so far and must be replayed to
// whichever entry was selected.
func ProbeConnection(ctx context.Context, cfg *Configuration, conn DeferredConn) (ProbeOutcome, *ProtocolEntry, *DeferredBuffer, error) {
	buf := &DeferredBuffer{}

	for {
		select {
		case <-ctx.Done():
			return Match, TimeoutProtocol(cfg), buf, ctx.Err()
		default:
		}

		outcome, entry := ProbeBuffer(cfg, buf.Bytes())
		if outcome == Match {
			return Match, entry, buf, nil
		}

		if buf.Len() >= maxBufferSize {
			log.WithField("buffered", buf.Len()).Warn("protomux: buffer cap reached without a match, falling back")
			return Match, exhaustionFallback(cfg), buf, nil
		}

		chunk := make([]byte, initialReadSize)
		n, err := conn.Read(chunk)
		if n > 0 {
			buf.Append(chunk[:n])
		}
		if err != nil {
			if err == io.EOF && n > 0 {
				// Last partial read still needs one more arbitration pass
				// before we give up; loop once more with no further read
				// possible (next Read will also EOF, n==0).
				continue
			}
			log.WithError(err).Debug("protomux: read failed before match, falling back")
			return Match, exhaustionFallback(cfg), buf, nil
		}
		if n == 0 {
			return Match, exhaustionFallback(cfg), buf, nil
		}
	}
}

// exhaustionFallback returns the last configured entry, the conventional
// always-match sentinel position (spec.md §4.F).
func exhaustionFallback(cfg *Configuration) *ProtocolEntry {
	if len(cfg.Entries) == 0 {
		return nil
	}
	return cfg.Entries[len(cfg.Entries)-1]
}
