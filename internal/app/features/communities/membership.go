// internal/app/features/communities/membership.go
package communities

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/features/shared/respond"
	"github.com/dalemusser/threadhub/internal/app/system/auditlog"
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type membershipResponse struct {
	Community string `json:"community"`
	Member    bool   `json:"member"`
}

// HandleJoin adds the caller to the community.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ext := chi.URLParam(r, "externalId")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Store.Join(ctx, ext, u.ExternalID)
	h.Metrics.Write("join_community", err)
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	h.Audit.MemberJoined(ctx, auditlog.UserActor(u.ExternalID), ext, u.ExternalID)
	respond.JSON(w, http.StatusOK, membershipResponse{Community: ext, Member: true})
}

// HandleLeave removes the caller from the community.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ext := chi.URLParam(r, "externalId")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Store.Leave(ctx, ext, u.ExternalID)
	h.Metrics.Write("leave_community", err)
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	h.Audit.MemberLeft(ctx, auditlog.UserActor(u.ExternalID), ext, u.ExternalID)
	respond.JSON(w, http.StatusOK, membershipResponse{Community: ext, Member: false})
}
