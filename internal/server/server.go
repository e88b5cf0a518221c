// Package server exposes the retrieval service over HTTP/JSON.
//
// Route table:
//
//	POST /index     append documents
//	POST /query     ranked, annotated results
//	POST /upload    multipart "files" to index
//	POST /feedback  log a relevance judgement
//	GET  /healthz   liveness and corpus state
//	GET  /metrics   Prometheus scrape endpoint
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"hybridrag/internal/metrics"
	"hybridrag/internal/service"
)

// Config configures the HTTP server.
type Config struct {
	Addr            string
	CORS            CORSConfig
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is the HTTP front of a service.Service.
type Server struct {
	cfg     Config
	handler http.Handler
	logger  *slog.Logger
}

// New wires routes and the middleware chain. m may be nil, which disables /metrics.
func New(cfg Config, svc *service.Service, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	logger = logger.With("component", "http-server")
	h := NewHandler(svc, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /index", h.Index)
	mux.HandleFunc("POST /query", h.Query)
	mux.HandleFunc("POST /upload", h.Upload)
	mux.HandleFunc("POST /feedback", h.Feedback)

	// request → CORS → AccessLog → Metrics → mux
	var chain http.Handler = mux
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
		chain = Metrics(m)(chain)
	}
	chain = AccessLog(logger)(chain)
	chain = CORS(cfg.CORS)(chain)

	return &Server{cfg: cfg, handler: chain, logger: logger}
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutdown_signal_received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
