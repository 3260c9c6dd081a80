// internal/app/features/profile/routes.go
package profile

import (
	"net/http"

	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /profile. A signed-in caller without
// a profile may create one here.
func Routes(h *Handler, writes func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeProfile)
	r.With(writes).Put("/", h.HandleUpsert)
	return r
}
