// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/threadhub/internal/app/features/shared/respond"
	"github.com/dalemusser/threadhub/internal/app/system/auth"
)

// Handler reports who the caller is.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type userInfo struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Onboarded       bool   `json:"onboarded"`
	ExternalID      string `json:"externalId"`
	Username        string `json:"username"`
	Name            string `json:"name"`
}

// ServeUserInfo returns the caller's identity status. Clients use
// "onboarded" to decide whether to send the user to profile completion.
//
// Response format:
//
//	{ "isAuthenticated": bool, "onboarded": bool, "externalId": "...", "username": "...", "name": "..." }
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	var info userInfo
	if ext, ok := auth.ExternalID(r); ok {
		info.IsAuthenticated = true
		info.ExternalID = ext
	}
	if u, ok := auth.CurrentUser(r); ok {
		info.Onboarded = u.Onboarded
		info.Username = u.Username
		info.Name = u.Name
	}
	respond.JSON(w, http.StatusOK, info)
}
