// internal/app/features/activity/routes.go
package activity

import (
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /activity. Only callers with a
// profile have activity.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireUser)
	r.Get("/", h.ServeActivity)
	return r
}
