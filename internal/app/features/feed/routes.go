// internal/app/features/feed/routes.go
package feed

import "github.com/go-chi/chi/v5"

// Routes registers GET /feed and GET /search on r. Both are public.
func Routes(r chi.Router, h *Handler) {
	r.Get("/feed", h.ServeFeed)
	r.Get("/search", h.ServeSearch)
}
