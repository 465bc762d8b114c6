package collector

import (
	"bufio"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xtaci/smux"

	"logsock/internal/shared/protocol"
	"logsock/internal/shared/types"
)

var errLineTooLong = errors.New("line exceeds configured maximum")

// handleConn sniffs the first byte to tell a plain line-protocol client
// from a smux session. The plain protocol always starts with an ASCII
// digit; smux frame headers start with a binary version byte.
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	connID := uuid.NewString()
	peer := peerCredentials(conn)
	log := s.log.With().Str("conn_id", connID).Logger()
	log.Debug().Int32("peer_pid", peer.PID).Msg("Connection accepted.")

	br := bufio.NewReaderSize(conn, 4096)
	head, err := br.Peek(1)
	if err != nil {
		// Closed without sending anything.
		return
	}
	if head[0] < 0x20 {
		s.serveMux(&bufferedConn{r: br, Conn: conn}, connID, peer, log)
		return
	}
	s.serveFrames(br, connID, peer, log)
}

// serveFrames reads frames until EOF. The original client connects,
// writes a single frame and closes; that is the degenerate case of this
// loop.
func (s *Server) serveFrames(r *bufio.Reader, connID string, peer types.PeerInfo, log zerolog.Logger) {
	for {
		verLine, err := readLine(r, s.cfg.MaxLineBytes)
		if err != nil {
			switch {
			case errors.Is(err, errLineTooLong):
				s.stats.Oversize.Add(1)
				log.Warn().Msg("Version line too long, closing connection.")
			case len(verLine) > 0:
				s.stats.Incomplete.Add(1)
				log.Debug().Msg("Connection ended mid-frame.")
			}
			return
		}

		version, convErr := strconv.Atoi(strings.TrimSpace(verLine))
		if convErr != nil {
			s.stats.MalformedVersion.Add(1)
			log.Warn().Str("line", truncate(verLine, 64)).Msg("Malformed protocol version, closing connection.")
			return
		}
		if version != protocol.Version {
			s.stats.VersionMismatch.Add(1)
			log.Warn().Int("got", version).Int("want", protocol.Version).Msg("Protocol version mismatch, closing connection.")
			return
		}

		msgLine, err := readLine(r, s.cfg.MaxLineBytes)
		atEOF := false
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				s.stats.Oversize.Add(1)
				log.Warn().Msg("Message line too long, closing connection.")
				return
			}
			if len(msgLine) == 0 {
				s.stats.Incomplete.Add(1)
				log.Debug().Msg("Version line without a message.")
				return
			}
			// A final line without its newline still counts.
			atEOF = true
		}

		msg := strings.TrimSuffix(msgLine, "\r")
		if !utf8.ValidString(msg) {
			s.stats.InvalidUTF8.Add(1)
			log.Warn().Msg("Dropping frame with invalid UTF-8 message.")
			if atEOF {
				return
			}
			continue
		}

		s.dispatch(&types.Entry{
			Timestamp: time.Now().UTC(),
			Message:   msg,
			Version:   version,
			ConnID:    connID,
			Peer:      peer,
		})
		if atEOF {
			return
		}
	}
}

// serveMux runs a smux server session over the connection. Each stream
// carries exactly one frame, so a long-lived client avoids a dial per
// message.
func (s *Server) serveMux(conn net.Conn, connID string, peer types.PeerInfo, log zerolog.Logger) {
	smuxConfig := smux.DefaultConfig()
	smuxConfig.Version = 2
	smuxConfig.KeepAliveInterval = 10 * time.Second
	smuxConfig.KeepAliveTimeout = 30 * time.Second

	session, err := smux.Server(conn, smuxConfig)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to establish mux session.")
		return
	}
	defer session.Close()
	s.stats.MuxSessions.Add(1)
	log.Debug().Msg("Mux session established.")

	for {
		stream, err := session.AcceptStream()
		if err != nil {
			// Session closed by the peer or by Server.Close.
			return
		}
		go func(st *smux.Stream) {
			defer st.Close()
			s.serveFrames(bufio.NewReaderSize(st, 4096), connID, peer, log)
		}(stream)
	}
}

// readLine reads up to and including the next newline, enforcing max. The
// returned line has the trailing newline stripped. On EOF any partial
// line read so far is returned alongside the error.
func readLine(r *bufio.Reader, max int) (string, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if len(buf) > max {
			return "", errLineTooLong
		}
		if err == nil {
			return string(buf[:len(buf)-1]), nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(buf), err
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// bufferedConn replays bytes already peeked by the sniffer before
// handing the rest of the stream to smux.
type bufferedConn struct {
	r *bufio.Reader
	net.Conn
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}
