// Package server is the local HTTP interface a UI process talks to. It
// exposes the launcher operations as JSON endpoints, streams
// extensions-updated events over a websocket and serves Prometheus
// metrics.
package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/pointy-labs/pointy/internal/extension"
	"github.com/pointy-labs/pointy/internal/launcher"
	"github.com/pointy-labs/pointy/internal/manifest"
	"github.com/pointy-labs/pointy/internal/prefs"
	"github.com/pointy-labs/pointy/internal/registry"
	"github.com/pointy-labs/pointy/internal/updater"
	"github.com/rs/zerolog"
)

// Launcher is the set of operations the API exposes.
type Launcher interface {
	List() ([]extension.Info, error)
	Active() ([]extension.Info, error)
	SearchInstalled(query string) ([]extension.Info, error)
	SearchOnline(ctx context.Context, query string) ([]registry.Match, error)
	Install(ctx context.Context, ref string) (*manifest.Release, error)
	Delete(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string) (bool, error)
	SetOrder(ctx context.Context, ids []string) error
	Run(id string) error
	ReadIcon(id string) (string, error)
	UpdateAll(ctx context.Context) (*updater.Report, error)
	CheckUpdates(ctx context.Context) (*updater.Report, error)
	Preferences() (prefs.Preferences, error)
	UpdatePreferences(ctx context.Context, p prefs.Preferences) (prefs.Preferences, error)
	Version() launcher.VersionInfo
}

// Server is the HTTP server.
type Server struct {
	launcher   Launcher
	events     http.Handler
	metrics    http.Handler
	logger     zerolog.Logger
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithEvents mounts the websocket event stream at /api/events.
func WithEvents(h http.Handler) Option {
	return func(s *Server) { s.events = h }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds a server listening on addr.
func New(addr string, l Launcher, opts ...Option) *Server {
	s := &Server{launcher: l, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/extensions", s.listHandler)
	mux.HandleFunc("GET /api/extensions/active", s.activeHandler)
	mux.HandleFunc("GET /api/extensions/online", s.onlineHandler)
	mux.HandleFunc("POST /api/extensions/update", s.updateHandler)
	mux.HandleFunc("PUT /api/extensions/order", s.orderHandler)
	mux.HandleFunc("POST /api/extensions/{id}/install", s.installHandler)
	mux.HandleFunc("DELETE /api/extensions/{id}", s.deleteHandler)
	mux.HandleFunc("POST /api/extensions/{id}/toggle", s.toggleHandler)
	mux.HandleFunc("POST /api/extensions/{id}/run", s.runHandler)
	mux.HandleFunc("GET /api/extensions/{id}/icon", s.iconHandler)
	mux.HandleFunc("GET /api/preferences", s.getPreferencesHandler)
	mux.HandleFunc("PUT /api/preferences", s.putPreferencesHandler)
	mux.HandleFunc("GET /api/version", s.versionHandler)
	if s.events != nil {
		mux.Handle("GET /api/events", s.events)
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return s.logRequests(mux)
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack is required by the websocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
