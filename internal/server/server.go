// Package server exposes the page harness over HTTP for previewing
// decorated pages and single blocks.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/page"
)

// Response headers describing the decoration outcome.
const (
	HeaderBlocks       = "X-Blocks-Decorated"
	HeaderBlocksFailed = "X-Blocks-Failed"
	HeaderBlockStatus  = "X-Block-Status"
)

// Option configures the server.
type Option func(*Server)

// WithOrigin sets the content origin pages are fetched from. Without one,
// request paths resolve into the harness fetcher's file system.
func WithOrigin(origin *url.URL) Option {
	return func(s *Server) {
		s.origin = origin
	}
}

// WithAllowedOrigins sets the CORS allow list.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server holds the HTTP server dependencies.
type Server struct {
	harness        *page.Harness
	origin         *url.URL
	allowedOrigins []string
	logger         *zap.Logger
	router         chi.Router
}

// New creates a server decorating pages with harness.
func New(harness *page.Harness, options ...Option) *Server {
	s := &Server{
		harness:        harness,
		allowedOrigins: []string{"*"},
		logger:         zap.NewNop(),
		router:         chi.NewRouter(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept"},
		ExposedHeaders: []string{HeaderBlocks, HeaderBlocksFailed, HeaderBlockStatus},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	s.router.Get("/blocks/{name}", s.handleBlock)
	s.router.Get("/*", s.handlePage)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	src, err := s.source(r.URL.Path)
	if err != nil {
		s.fail(w, err)
		return
	}
	out, report, err := s.harness.Render(r.Context(), src)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set(HeaderBlocks, strconv.Itoa(len(report.Blocks)))
	w.Header().Set(HeaderBlocksFailed, strconv.Itoa(len(report.Failed())))
	writeHTML(w, out)
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ref := r.URL.Query().Get("src")
	if ref == "" {
		http.Error(w, "src query parameter is required", http.StatusBadRequest)
		return
	}
	src, err := s.source(ref)
	if err != nil {
		s.fail(w, err)
		return
	}
	out, result, err := s.harness.RenderBlock(r.Context(), src, name)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set(HeaderBlockStatus, result.Status)
	writeHTML(w, out)
}

// source maps a request path onto the origin, or onto the fetcher file
// system when no origin is set. Directory paths get index.html and
// extensionless file system paths get .html.
func (s *Server) source(ref string) (content.Source, error) {
	if s.origin == nil {
		if strings.HasSuffix(ref, "/") {
			ref += "index.html"
		} else if path.Ext(ref) == "" {
			ref += ".html"
		}
	}
	if !strings.HasPrefix(ref, "/") {
		return nil, fmt.Errorf("server: reference %q must be absolute", ref)
	}
	return content.Resolve(s.origin, ref)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("preview failed", zap.Error(err))
	}
	http.Error(w, http.StatusText(status), status)
}

func statusFor(err error) int {
	if errors.Is(err, page.ErrBlockNotFound) || errors.Is(err, fs.ErrNotExist) {
		return http.StatusNotFound
	}
	var fetchErr *content.FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.Kind {
		case content.KindTimeout:
			return http.StatusGatewayTimeout
		case content.KindStatus:
			if fetchErr.StatusCode == http.StatusNotFound {
				return http.StatusNotFound
			}
			return http.StatusBadGateway
		default:
			return http.StatusBadGateway
		}
	}
	return http.StatusBadRequest
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
