// internal/app/features/threads/view.go
package threads

import (
	"net/http"

	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/features/shared/respond"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeThread returns a thread with its entire reply tree.
func (h *Handler) ServeThread(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "get thread")
	defer cancel()

	v, err := h.Reader.GetThread(ctx, chi.URLParam(r, "id"))
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, v)
}
