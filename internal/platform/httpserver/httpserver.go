package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

// WriteTimeout sits above the router's per-request timeout so handlers can
// still write their timeout response.
const WriteTimeout = 35 * time.Second

// New builds the HTTP server. Connection-level errors go to logger at warn.
func New(addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
