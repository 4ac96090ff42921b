// Package server exposes the upload and portfolio-run API over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"portfolio-lab/internal/observability"
	"portfolio-lab/internal/runner"
	"portfolio-lab/internal/server/ws"
	"portfolio-lab/internal/storage"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// Options wires the server's dependencies.
type Options struct {
	Config Config

	BatchStore      storage.BatchStore
	FileRecordStore storage.FileRecordStore
	RunStore        storage.RunStore
	CurvePointStore storage.CurvePointStore
	ObjectStore     storage.ObjectStore

	Runner *runner.Runner
	Hub    *ws.Hub
	Logger *log.Logger
}

// Server is the HTTP + WebSocket API for uploads and portfolio runs.
type Server struct {
	httpServer *http.Server

	deps   *handlerDeps
	logger *log.Logger
}

// handlerDeps groups the stores and runner the handlers need.
type handlerDeps struct {
	batchStore storage.BatchStore
	fileStore  storage.FileRecordStore
	runStore   storage.RunStore
	curveStore storage.CurvePointStore
	objects    storage.ObjectStore
	runner     *runner.Runner
	hub        *ws.Hub
	logger     *log.Logger
}

// New creates a Server with all routes registered.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	deps := &handlerDeps{
		batchStore: opts.BatchStore,
		fileStore:  opts.FileRecordStore,
		runStore:   opts.RunStore,
		curveStore: opts.CurvePointStore,
		objects:    opts.ObjectStore,
		runner:     opts.Runner,
		hub:        opts.Hub,
		logger:     logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", deps.handleHealth)
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("POST /api/uploads", deps.handleUpload)
	mux.HandleFunc("GET /api/batches", deps.handleListBatches)
	mux.HandleFunc("GET /api/batches/{id}", deps.handleGetBatch)

	mux.HandleFunc("POST /api/portfolio/run", deps.handleRun)
	mux.HandleFunc("GET /api/portfolio/runs", deps.handleListRuns)
	mux.HandleFunc("GET /api/portfolio/runs/{id}", deps.handleGetRun)
	mux.HandleFunc("GET /api/portfolio/runs/{id}/curves/{curve}", deps.handleGetCurve)

	if opts.Hub != nil {
		mux.HandleFunc("GET /ws", opts.Hub.HandleWS)
	}

	var h http.Handler = mux
	h = corsMiddleware(opts.Config.CORSOrigins)(h)

	addr := fmt.Sprintf("%s:%d", opts.Config.Host, opts.Config.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{httpServer: srv, deps: deps, logger: logger}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Printf("Starting HTTP server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests to
// complete within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Println("Shutting down HTTP server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// corsMiddleware sets CORS headers for the allowed origins. Empty origins
// allow every origin.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed := len(allowedOrigins) == 0
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}
				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
