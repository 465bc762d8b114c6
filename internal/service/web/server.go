package web

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"golang.org/x/net/netutil"

	"logsock/internal/shared/logger"
	"logsock/internal/shared/types"
)

// basicAuthMiddleware enforces HTTP Basic Authentication when a web user
// and password are configured; otherwise it returns the handler as-is.
func basicAuthMiddleware(next http.Handler, user, pass string) http.Handler {
	if user == "" || pass == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized.\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewMux builds the route table. Split out of StartServer so tests can
// drive it through httptest.
func NewMux(cfg *types.Config, handler *Handler, hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()

	// Public status endpoint and the live tail.
	mux.HandleFunc("/api/status", handler.HandleStatus)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	})

	// History snapshot is auth-protected when credentials are set.
	mux.Handle("/api/entries", basicAuthMiddleware(http.HandlerFunc(handler.HandleEntries), cfg.WebUser, cfg.WebPassword))

	return mux
}

func StartServer(wg *sync.WaitGroup, cfg *types.Config, handler *Handler, hub *Hub) {
	if cfg.WebPort <= 0 {
		logger.Info().Msg("Web service is disabled (web_port is 0 or not set).")
		return
	}

	mux := NewMux(cfg, handler, hub)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.WebPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error().Err(err).Msgf("FAILED to start web service on %s", addr)
		return
	}
	listener = netutil.LimitListener(listener, cfg.MaxConnections)

	logger.Info().Msgf("Web service is listening on http://%s", addr)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := http.Serve(listener, mux); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Web server error.")
		}
		logger.Info().Msg("Web server stopped.")
	}()
}
