// internal/app/features/communities/routes.go
package communities

import (
	"net/http"

	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all Community routes under the base path
// (typically "/communities" from bootstrap).
func Routes(h *Handler, writes func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{externalId}", h.ServeDetail)
	r.Get("/{externalId}/posts", h.ServePosts)

	// Membership changes act on the caller only.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireUser)
		pr.Use(writes)
		pr.Post("/{externalId}/members", h.HandleJoin)
		pr.Delete("/{externalId}/members", h.HandleLeave)
	})

	return r
}
