// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/features/shared/respond"
	"github.com/dalemusser/threadhub/internal/app/store/queries/threadqueries"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves public user profiles and their posts.
type Handler struct {
	Users   *userstore.Store
	Threads *threadqueries.Reader
	Log     *zap.Logger
}

func NewHandler(users *userstore.Store, threads *threadqueries.Reader, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Threads: threads, Log: logger}
}

// Routes returns the router mounted at /users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{externalId}", h.ServeUser)
	r.Get("/{externalId}/threads", h.ServeThreads)
	return r
}

// ServeUser handles GET /users/{externalId}.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByExternalID(ctx, chi.URLParam(r, "externalId"))
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// ServeThreads handles GET /users/{externalId}/threads?page&pageSize:
// everything the user posted, replies included.
func (h *Handler) ServeThreads(w http.ResponseWriter, r *http.Request) {
	pg := paging.FromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByExternalID(ctx, chi.URLParam(r, "externalId"))
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	page, err := h.Threads.GetThreadsByAuthor(ctx, u.ID, pg.Number, pg.Size)
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}
