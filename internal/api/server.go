package api

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"currency-converter-go/internal/favorites"
	"currency-converter-go/internal/metrics"
	"go.uber.org/zap"
)

//go:embed notfound.html
var defaultNotFoundPage []byte

// Server serves the favorites API, static files and metrics.
type Server struct {
	server    *http.Server
	repo      favorites.Repository
	logger    *zap.Logger
	metrics   *metrics.Metrics
	staticDir string
}

// NewServer creates a new Server listening on port. A nil m gets a private registry.
func NewServer(port int, staticDir string, repo favorites.Repository, logger *zap.Logger, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.New()
	}
	s := &Server{
		repo:      repo,
		logger:    logger.Named("api-server"),
		metrics:   m,
		staticDir: staticDir,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the handler tree wrapped in the request middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/favorites", s.favoritesHandler)
	mux.HandleFunc("/api/", s.apiNotFoundHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/", s.staticHandler)

	return s.withRequestContext(s.withRecovery(mux))
}

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) apiNotFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, msgNotFound)
}

// staticHandler serves files from the static directory. Anything that is not a
// regular file gets the 404 page.
func (s *Server) staticHandler(w http.ResponseWriter, r *http.Request) {
	if s.staticDir != "" {
		name := filepath.Join(s.staticDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if r.URL.Path == "/" {
			name = filepath.Join(s.staticDir, "index.html")
		}
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			http.ServeFile(w, r, name)
			return
		}
	}
	s.notFoundPage(w)
}

func (s *Server) notFoundPage(w http.ResponseWriter) {
	page := defaultNotFoundPage
	if s.staticDir != "" {
		if custom, err := os.ReadFile(filepath.Join(s.staticDir, "404.html")); err == nil {
			page = custom
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(page)
}
