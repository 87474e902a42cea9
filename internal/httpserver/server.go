package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spacesedan/wctweets/internal/dashboard"
	"github.com/spacesedan/wctweets/internal/metrics"
	"github.com/spacesedan/wctweets/internal/models"
)

// Builder computes one dashboard. *dashboard.Service implements it.
type Builder interface {
	Build(ctx context.Context, q dashboard.Query) (models.Dashboard, error)
}

// Server serves the dashboard JSON and HTML report.
type Server struct {
	builder    Builder
	healthy    *atomic.Bool
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer wires the routes. healthy is the sink health flag kept by the
// monitor; nil means always healthy.
func NewServer(port int, builder Builder, healthy *atomic.Bool, logger *slog.Logger) *Server {
	if healthy == nil {
		healthy = &atomic.Bool{}
		healthy.Store(true)
	}
	s := &Server{
		builder: builder,
		healthy: healthy,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.Handle("GET /metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      withLogging(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start blocks until the server is shut down or fails.
func (s *Server) Start() error {
	s.logger.Info("[HTTP] Starting server", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.healthy.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "sink unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	d, err := s.builder.Build(r.Context(), q)
	if err != nil {
		s.logger.Error("[HTTP] Failed to build dashboard",
			slog.String("variant", q.Variant),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to build dashboard")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	d, err := s.builder.Build(r.Context(), q)
	if err != nil {
		s.logger.Error("[HTTP] Failed to build report", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to build report")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dashboard.RenderHTML(d))
}

// parseQuery reads variant, lang (comma separated) and retweets, which
// defaults to true.
func parseQuery(r *http.Request) (dashboard.Query, error) {
	v := r.URL.Query()
	q := dashboard.Query{Variant: v.Get("variant"), IncludeRetweets: true}

	if _, err := dashboard.FieldsFor(q.Variant); err != nil {
		return q, fmt.Errorf("variant must be %q or %q", dashboard.VARIANT_BASIC, dashboard.VARIANT_EXTENDED)
	}
	if raw := v.Get("lang"); raw != "" {
		for _, l := range strings.Split(raw, ",") {
			if l = strings.TrimSpace(l); l != "" {
				q.Langs = append(q.Langs, l)
			}
		}
	}
	if raw := v.Get("retweets"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("retweets must be a boolean")
		}
		q.IncludeRetweets = b
	}
	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("[HTTP] request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
