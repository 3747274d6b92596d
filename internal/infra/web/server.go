package web

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"streamgate/internal/infra/logging"
	"streamgate/internal/usecase"
)

// RateLimiter is the slice of the redis limiter the server needs; nil disables
// limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimitConfig bounds public validation attempts per client IP.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

type Server struct {
	codeUC    *usecase.AccessCodeUseCase
	cleanup   *usecase.CleanupService
	auth      *AuthManager
	limiter   RateLimiter
	rlCfg     RateLimitConfig
	wsHandler http.HandlerFunc
	log       *zerolog.Logger
}

func NewServer(
	codeUC *usecase.AccessCodeUseCase,
	cleanup *usecase.CleanupService,
	auth *AuthManager,
	limiter RateLimiter,
	rlCfg RateLimitConfig,
	wsHandler http.HandlerFunc,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		codeUC:    codeUC,
		cleanup:   cleanup,
		auth:      auth,
		limiter:   limiter,
		rlCfg:     rlCfg,
		wsHandler: wsHandler,
		log:       &l,
	}
}

// Router assembles the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.traceMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(s.requestLogMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface: validation only.
		r.Post("/codes/validate", s.handleValidate)

		r.Post("/admin/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/codes", s.handleGenerate)
			r.Delete("/codes/{code}", s.handleRevoke)
			r.Get("/admin/snapshot", s.handleSnapshot)
			r.Post("/admin/cleanup", s.handleForceCleanup)
			r.Get("/admin/cleanup", s.handleCleanupStatus)
			if s.wsHandler != nil {
				r.Get("/admin/events", s.wsHandler)
			}
		})
	})

	return r
}

// authMiddleware guards the admin surface.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Authenticate(r); err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		ctx = logging.WithClientIP(ctx, clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logging.With(r.Context(), s.log)
		start := time.Now()
		ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		l.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.status).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrade work through the logging wrapper.
func (w *respWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}
