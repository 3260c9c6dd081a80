// internal/app/features/activity/handler.go
package activity

import (
	"context"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/features/shared/respond"
	"github.com/dalemusser/threadhub/internal/app/store/queries/activityqueries"
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Handler owns the caller's activity feed.
type Handler struct {
	Reader *activityqueries.Reader
	Log    *zap.Logger
}

// NewHandler creates a new activity Handler.
func NewHandler(reader *activityqueries.Reader, logger *zap.Logger) *Handler {
	return &Handler{Reader: reader, Log: logger}
}

type activityResponse struct {
	Events []models.ReplyEvent `json:"events"`
}

// ServeActivity handles GET /activity?limit: replies to the caller's
// threads, newest first.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	limit := 0
	if s := query.Get(r, "limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			errorsfeature.BadRequest(w, "limit must be a number")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Reader.GetUserActivity(ctx, u.ID, limit)
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, activityResponse{Events: events})
}
