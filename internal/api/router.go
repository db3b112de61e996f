package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/scribe/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *docservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/transcode", h.Transcode)
	r.Post("/slug", h.Slug)
	r.Get("/formats", h.Formats)

	return r
}
