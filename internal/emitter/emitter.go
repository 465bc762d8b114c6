// Package emitter is the client side of the collector protocol. A Writer
// frames messages and ships them to the daemon's unix socket, either with
// a fresh connection per message or over a multiplexed session. It
// implements io.Writer so it can be plugged straight into a logging
// library as a sink.
package emitter

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/xtaci/smux"

	"logsock/internal/shared/protocol"
)

// Writer ships log frames to a collector socket. Safe for concurrent use.
type Writer struct {
	// Path is the unix socket path of the collector.
	Path string
	// Version is the protocol version stamped on every frame. Defaults
	// to protocol.Version; override only to exercise the collector's
	// mismatch handling.
	Version int
	// DialTimeout bounds each connection attempt.
	DialTimeout time.Duration

	muxed        bool
	sessionMutex sync.Mutex
	session      *smux.Session
}

// New returns a Writer that dials a fresh connection per message, the
// behavior of the original debug tooling.
func New(path string) *Writer {
	return &Writer{
		Path:        path,
		Version:     protocol.Version,
		DialTimeout: 3 * time.Second,
	}
}

// NewMux returns a Writer that keeps one connection open and sends each
// message on its own smux stream.
func NewMux(path string) *Writer {
	w := New(path)
	w.muxed = true
	return w
}

// Emit sends one message as one frame. Embedded newlines are flattened
// to spaces; the wire format has no escaping.
func (w *Writer) Emit(message string) error {
	message = strings.ReplaceAll(message, "\n", " ")
	if w.muxed {
		return w.emitMux(message)
	}
	return w.emitDial(message)
}

// Write implements io.Writer. Each call is one message; a single
// trailing newline, as appended by logging libraries, is stripped.
func (w *Writer) Write(p []byte) (int, error) {
	msg := strings.TrimSuffix(string(p), "\n")
	if err := w.Emit(msg); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close tears down the mux session, if any.
func (w *Writer) Close() error {
	w.sessionMutex.Lock()
	defer w.sessionMutex.Unlock()
	if w.session != nil && !w.session.IsClosed() {
		return w.session.Close()
	}
	return nil
}

func (w *Writer) emitDial(message string) error {
	conn, err := net.DialTimeout("unix", w.Path, w.DialTimeout)
	if err != nil {
		return fmt.Errorf("dial collector %s: %w", w.Path, err)
	}
	defer conn.Close()
	return protocol.WriteFrame(conn, w.Version, message)
}

func (w *Writer) emitMux(message string) error {
	session, err := w.getOrCreateSession()
	if err != nil {
		return err
	}
	stream, err := session.OpenStream()
	if err != nil {
		// The session may have died since the last Emit; retry once on
		// a fresh one.
		w.dropSession(session)
		session, err = w.getOrCreateSession()
		if err != nil {
			return err
		}
		stream, err = session.OpenStream()
		if err != nil {
			return fmt.Errorf("open mux stream: %w", err)
		}
	}
	defer stream.Close()
	return protocol.WriteFrame(stream, w.Version, message)
}

// getOrCreateSession manages the mux session lifecycle: reuse while
// healthy, redial when closed.
func (w *Writer) getOrCreateSession() (*smux.Session, error) {
	w.sessionMutex.Lock()
	defer w.sessionMutex.Unlock()

	if w.session != nil && !w.session.IsClosed() {
		return w.session, nil
	}

	conn, err := net.DialTimeout("unix", w.Path, w.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("mux dial collector %s: %w", w.Path, err)
	}

	smuxConfig := smux.DefaultConfig()
	smuxConfig.Version = 2
	smuxConfig.KeepAliveInterval = 10 * time.Second
	smuxConfig.KeepAliveTimeout = 30 * time.Second

	session, err := smux.Client(conn, smuxConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smux client session creation failed: %w", err)
	}

	w.session = session
	return w.session, nil
}

func (w *Writer) dropSession(stale *smux.Session) {
	w.sessionMutex.Lock()
	defer w.sessionMutex.Unlock()
	if w.session == stale {
		w.session.Close()
		w.session = nil
	}
}
