package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/benmeehan/device-locator/internal/services"
)

// NewRouter registers the location route and the middleware stack.
func NewRouter(locations services.LocationServiceInterface, logger zerolog.Logger) http.Handler {
	handler := NewHandler(locations, logger)

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/location", handler.getLocation)

	return r
}
