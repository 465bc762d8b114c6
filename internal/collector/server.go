// Package collector implements the unix domain socket listener that
// receives version-prefixed log frames from instrumented processes.
package collector

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"logsock/internal/shared/logger"
	"logsock/internal/shared/types"
	"logsock/internal/sink"
)

// Server owns the listening socket and the per-connection handlers.
type Server struct {
	cfg   *types.Config
	stats *types.Stats
	sinks []sink.Sink
	log   zerolog.Logger

	listener net.Listener
	// Counting semaphore bounding concurrent connections. The limiter
	// sits around Accept rather than netutil.LimitListener because the
	// peer credential lookup needs the unwrapped *net.UnixConn.
	sem chan struct{}

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func New(cfg *types.Config, stats *types.Stats, sinks ...sink.Sink) *Server {
	return &Server{
		cfg:   cfg,
		stats: stats,
		sinks: sinks,
		log:   logger.WithComponent("collector"),
		sem:   make(chan struct{}, cfg.MaxConnections),
		conns: make(map[net.Conn]struct{}),
	}
}

// Start claims the socket path and begins accepting connections in the
// background. It returns once the listener is live.
func (s *Server) Start() error {
	if err := s.claimSocket(); err != nil {
		return err
	}
	ln, err := net.Listen("unix", s.cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.SocketPath, err)
	}
	s.listener = ln
	s.log.Info().Str("path", s.cfg.SocketPath).Msg("Collector listening.")

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// claimSocket handles the leftover socket file of a crashed daemon. A
// path that still answers dials belongs to a live instance and is an
// error; a dead one is removed.
func (s *Server) claimSocket() error {
	if _, err := os.Stat(s.cfg.SocketPath); err != nil {
		return nil
	}
	conn, err := net.DialTimeout("unix", s.cfg.SocketPath, 250*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("socket %s is already in use", s.cfg.SocketPath)
	}
	s.log.Warn().Str("path", s.cfg.SocketPath).Msg("Removing stale socket file.")
	if err := os.Remove(s.cfg.SocketPath); err != nil {
		return fmt.Errorf("remove stale socket %s: %w", s.cfg.SocketPath, err)
	}
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		s.sem <- struct{}{}
		conn, err := s.listener.Accept()
		if err != nil {
			<-s.sem
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn().Err(err).Msg("Accept error.")
			continue
		}
		s.stats.Accepted.Add(1)
		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer func() { <-s.sem }()
			defer s.untrack(conn)
			s.handleConn(conn)
		}()
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// dispatch fans one accepted frame out to all sinks.
func (s *Server) dispatch(e *types.Entry) {
	s.stats.Frames.Add(1)
	for _, sk := range s.sinks {
		sk.Consume(e)
	}
}

// Close stops the listener, closes active connections, waits for the
// handlers to drain, and removes the socket file.
func (s *Server) Close() error {
	var err error
	s.stopOnce.Do(func() {
		if s.listener != nil {
			err = s.listener.Close()
		}
		s.mu.Lock()
		for c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
		os.Remove(s.cfg.SocketPath)
		s.log.Info().Msg("Collector stopped.")
	})
	return err
}
