// internal/app/features/threads/create.go
package threads

import (
	"net/http"

	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/features/shared/respond"
	threadstore "github.com/dalemusser/threadhub/internal/app/store/threads"
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/dalemusser/threadhub/internal/app/system/limits"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type createRequest struct {
	Text        string `json:"text"`
	CommunityID string `json:"communityId,omitempty"`
}

type replyRequest struct {
	Text string `json:"text"`
}

// HandleCreate posts a top-level thread as the caller.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req createRequest
	if err := respond.DecodeJSON(w, r, &req, limits.MaxThreadBody); err != nil {
		errorsfeature.BadRequest(w, "Request body must be JSON with a text field.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create thread")
	defer cancel()

	th, err := h.Store.CreateThread(ctx, threadstore.NewThread{
		Text:                req.Text,
		AuthorID:            u.ID,
		CommunityExternalID: req.CommunityID,
	})
	h.Metrics.Write("create_thread", err)
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}

	w.Header().Set("Location", "/threads/"+th.ID.Hex())
	respond.JSON(w, http.StatusCreated, th)
}

// HandleReply posts a reply under the thread in the URL.
func (h *Handler) HandleReply(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req replyRequest
	if err := respond.DecodeJSON(w, r, &req, limits.MaxThreadBody); err != nil {
		errorsfeature.BadRequest(w, "Request body must be JSON with a text field.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create reply")
	defer cancel()

	th, err := h.Store.CreateReply(ctx, chi.URLParam(r, "id"), req.Text, u.ID)
	h.Metrics.Write("create_reply", err)
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}

	w.Header().Set("Location", "/threads/"+th.ID.Hex())
	respond.JSON(w, http.StatusCreated, th)
}
