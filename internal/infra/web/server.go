// Package web is the HTTP boundary: upload intake, SSE job streaming,
// meal history and correction, plus health and metrics endpoints.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"foodvision/internal/config"
	"foodvision/internal/infra/logging"
	"foodvision/internal/usecase"
)

type Server struct {
	scanUC      usecase.ScanUseCase
	mealUC      usecase.MealUseCase
	uploadsDir  string
	deepEnabled bool
	log         *zerolog.Logger
	server      *http.Server
}

func NewServer(
	cfg *config.Config,
	scanUC usecase.ScanUseCase,
	mealUC usecase.MealUseCase,
	deepEnabled bool,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		scanUC:      scanUC,
		mealUC:      mealUC,
		uploadsDir:  cfg.Uploads.Dir,
		deepEnabled: deepEnabled,
		log:         logger,
	}
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/jobs/{id}/events", s.handleJobEvents)
		r.Post("/correct", s.handleCorrect)
		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleHistory)
			r.Delete("/", s.handleClearHistory)
			r.Delete("/{id}", s.handleDeleteMeal)
		})
		// Served images: uploads, annotated frames and crops live in one dir.
		r.Handle("/uploads/*", http.StripPrefix("/api/uploads/", http.FileServer(http.Dir(s.uploadsDir))))
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps the SSE stream working through the logging wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		// Downstream logs pick the id up through logging.With.
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(sw, r.WithContext(ctx))

		logging.With(ctx, s.log).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
