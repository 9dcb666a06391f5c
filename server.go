package protomux

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sslh-go/protomux/metrics"
)

// Server wires the core (arbiter, buffer accumulator, fallback selector) to
// a real net.Listener and dials the selected backend, replaying the
// deferred buffer before splicing the two connections together. This is
// the external-collaborator boundary spec.md §6 names ("a read-callable
// yielding bytes from the client" / "configuration-loaded list of
// ProtocolEntry") but leaves unspecified; its shape is grounded on the
// teacher's accept/run loop and, more directly, on the teleport
// multiplexer's Serve/detectAndForward (see DESIGN.md).
type Server struct {
	Listener net.Listener
	Config   *Configuration

	// DetectTimeout bounds how long ProbeConnection may wait for enough
	// bytes to decide before falling back to TimeoutProtocol. Defaults to
	// 10s if zero.
	DetectTimeout time.Duration

	// Dial opens the backend connection for a selected entry. Defaults
	// to a plain net.Dialer.DialContext over TCP.
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)

	// Metrics, if set, receives decision counters.
	Metrics *metrics.Decisions

	// AllowProxyProtocol enables peeling an optional PROXY protocol v1/v2
	// header before protocol detection (see peelProxyHeader). Off by
	// default.
	AllowProxyProtocol bool
}

// Serve accepts connections until ctx is done, handling each one in its
// own goroutine.
func (s *Server) Serve(ctx context.Context) error {
	log.WithField("addr", s.Listener.Addr()).Info("protomux: serving")
	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			log.WithError(err).Warn("protomux: accept error, backing off")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		go s.detectAndForward(ctx, conn)
	}
}

func (s *Server) detectTimeout() time.Duration {
	if s.DetectTimeout > 0 {
		return s.DetectTimeout
	}
	return 10 * time.Second
}

func (s *Server) detectAndForward(ctx context.Context, conn net.Conn) {
	detectCtx, cancel := context.WithTimeout(ctx, s.detectTimeout())
	defer cancel()

	reader := bufio.NewReader(conn)
	if s.AllowProxyProtocol {
		if err := peelProxyHeader(reader); err != nil {
			log.WithError(err).Warn("protomux: failed to peel PROXY header")
			conn.Close()
			return
		}
	}

	_, entry, buf, err := ProbeConnection(detectCtx, s.Config, reader)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		s.recordTimeout()
	}
	if entry == nil {
		log.Warn("protomux: no entry selected, closing connection")
		conn.Close()
		return
	}
	s.recordMatch(entry)

	backend, derr := s.dial(ctx, entry)
	if derr != nil {
		log.WithError(derr).WithField("entry", entry.Name).Warn("protomux: failed dialing backend")
		conn.Close()
		return
	}

	if buf.Len() > 0 {
		if _, werr := backend.Write(buf.Bytes()); werr != nil {
			log.WithError(werr).Warn("protomux: failed replaying buffer to backend")
			conn.Close()
			backend.Close()
			return
		}
	}

	splice(conn, backend)
}

func (s *Server) dial(ctx context.Context, entry *ProtocolEntry) (net.Conn, error) {
	dialFn := s.Dial
	if dialFn == nil {
		var d net.Dialer
		dialFn = d.DialContext
	}
	addr := net.JoinHostPort(entry.Host, strconv.Itoa(int(entry.Port)))
	return dialFn(ctx, "tcp", addr)
}

func (s *Server) recordMatch(entry *ProtocolEntry) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.Match.WithLabelValues(entry.Name).Inc()
}

func (s *Server) recordTimeout() {
	if s.Metrics == nil {
		return
	}
	s.Metrics.TimeoutFallback.Inc()
}

// splice copies bytes bidirectionally between a and b until one side
// closes, then closes both.
func splice(a, b net.Conn) {
	defer a.Close()
	defer b.Close()

	done := make(chan struct{}, 2)
	cp := func(dst, src net.Conn) {
		_, _ = io.Copy(dst, src)
		done <- struct{}{}
	}
	go cp(a, b)
	go cp(b, a)
	<-done
}

var proxyV1Prefix = []byte("PROXY ")
var proxyV2Signature = []byte{0x0d, 0x0a, 0x0d, 0x0a, 0x00, 0x0d, 0x0a, 0x51, 0x55, 0x49, 0x54, 0x0a}

// peelProxyHeader consumes an optional PROXY protocol v1 (text) or v2
// (binary) header from r, discarding it before protocol detection begins.
// Grounded on other_examples/0d2245f5_Ratio1-tcp-tunnel-proxy__sni.go.go's
// maybeConsumeProxyHeader; see SPEC_FULL.md's Supplemented Features.
func peelProxyHeader(r *bufio.Reader) error {
	const v2Len = 12

	sig, err := r.Peek(v2Len)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, bufio.ErrBufferFull) {
			return nil
		}
		return fmt.Errorf("peeking for proxy header: %w", err)
	}

	if bytes.HasPrefix(sig, proxyV1Prefix) {
		line, err := r.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading proxy v1 header: %w", err)
		}
		if len(line) > 107 {
			return errors.New("proxy v1 header too long")
		}
		return nil
	}

	if bytes.Equal(sig, proxyV2Signature) {
		hdr := make([]byte, 16)
		if _, err := io.ReadFull(r, hdr); err != nil {
			return fmt.Errorf("reading proxy v2 header: %w", err)
		}
		addrLen := int(binary.BigEndian.Uint16(hdr[14:16]))
		if addrLen > 0 {
			addr := make([]byte, addrLen)
			if _, err := io.ReadFull(r, addr); err != nil {
				return fmt.Errorf("reading proxy v2 address block: %w", err)
			}
		}
	}
	return nil
}
