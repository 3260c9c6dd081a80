// internal/app/features/feed/handler.go
package feed

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/features/shared/respond"
	"github.com/dalemusser/threadhub/internal/app/store/queries/feedqueries"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Handler serves the global feed and thread search.
type Handler struct {
	Reader *feedqueries.Reader
	Log    *zap.Logger
}

func NewHandler(reader *feedqueries.Reader, logger *zap.Logger) *Handler {
	return &Handler{Reader: reader, Log: logger}
}

// ServeFeed handles GET /feed?page&pageSize.
func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	pg := paging.FromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Reader.ListFeed(ctx, pg.Number, pg.Size)
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// ServeSearch handles GET /search?q&author&sort&page&pageSize.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	pg := paging.FromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Reader.SearchThreads(ctx, feedqueries.SearchParams{
		Query:    query.Get(r, "q"),
		Author:   query.Get(r, "author"),
		Sort:     query.Get(r, "sort"),
		Page:     pg.Number,
		PageSize: pg.Size,
	})
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}
