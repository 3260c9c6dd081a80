// internal/app/features/threads/routes.go
package threads

import (
	"net/http"

	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /threads. writes throttles the
// posting endpoints.
func Routes(h *Handler, writes func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.ServeThread)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireUser)
		pr.Use(writes)
		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}/replies", h.HandleReply)
	})

	return r
}
