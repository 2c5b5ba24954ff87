// Package api exposes the routine service over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Lllllllleong/routinesharing/internal/services"
)

type API struct {
	Service *services.RoutineService
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(loggingMiddleware)

	r.Get("/health", a.handleHealth)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", a.handleListSessions)
		r.Get("/{key}", a.handleGetSession)
		r.Delete("/{key}", a.handleDeleteSession)
		r.Post("/{key}/like", a.handleLikeSession)
		r.Post("/{key}/edit", a.handleEditSession)
		r.Get("/{key}/export", a.handleExportSession)
		r.Post("/{key}/export", a.handlePublishSession)
	})
	r.Get("/documents/{id}/export", a.handleExportDocument)
	r.Post("/uploads", a.handleUpload)
	r.Post("/imports", a.handleImport)

	return r
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("Request served.",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}
