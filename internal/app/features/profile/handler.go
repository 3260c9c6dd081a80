// internal/app/features/profile/handler.go
package profile

import (
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/blob"
	"github.com/dalemusser/threadhub/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Handler owns the caller's profile endpoints.
type Handler struct {
	Users   *userstore.Store
	Blob    blob.Uploader // nil disables image uploads
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// NewHandler constructs a Handler. uploader and m may be nil.
func NewHandler(users *userstore.Store, uploader blob.Uploader, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Users:   users,
		Blob:    uploader,
		Metrics: m,
		Log:     logger,
	}
}
