// internal/app/features/communities/list.go
package communities

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/features/shared/respond"
	communitystore "github.com/dalemusser/threadhub/internal/app/store/communities"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
)

// ServeList handles GET /communities?q&page&pageSize&sort.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	pg := paging.FromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Store.List(ctx, communitystore.ListParams{
		Search:   query.Get(r, "q"),
		Page:     pg.Number,
		PageSize: pg.Size,
		Sort:     query.Get(r, "sort"),
	})
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// ServeDetail handles GET /communities/{externalId}.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Store.GetDetail(ctx, chi.URLParam(r, "externalId"))
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, d)
}

// ServePosts handles GET /communities/{externalId}/posts?page&pageSize.
func (h *Handler) ServePosts(w http.ResponseWriter, r *http.Request) {
	pg := paging.FromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Feed.CommunityPosts(ctx, chi.URLParam(r, "externalId"), pg.Number, pg.Size)
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}
