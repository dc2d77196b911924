package api

import (
	_ "arbmonitor/docs"
	"arbmonitor/internal/api/handler"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	swagger "github.com/swaggo/http-swagger"
)

// NewRouter builds the read-only API. stream may be nil when broadcasting is off.
func NewRouter(h *handler.Handler, stream http.Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	// Swagger UI
	router.Get("/swagger/*", swagger.WrapHandler)

	router.Get("/api/v1/monitor/status", h.GetStatus)
	router.Get("/api/v1/spreads/latest", h.GetLatestSpreads)
	router.Get("/api/v1/trispreads/latest", h.GetLatestTriSpreads)
	if stream != nil {
		router.Handle("/api/v1/stream", stream)
	}
	return router
}
