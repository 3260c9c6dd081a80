// internal/app/features/webhooks/handler.go
package webhooks

import (
	communitystore "github.com/dalemusser/threadhub/internal/app/store/communities"
	"github.com/dalemusser/threadhub/internal/app/system/auditlog"
	"github.com/dalemusser/threadhub/internal/app/system/events"
	"github.com/dalemusser/threadhub/internal/app/system/metrics"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler ingests organization events and applies them to the community
// directory.
type Handler struct {
	Signer      *Signer
	Communities *communitystore.Store
	Audit       *auditlog.Logger
	Events      events.Publisher
	Metrics     *metrics.Metrics
	Log         *zap.Logger
}

// NewHandler constructs a Handler. audit, pub and m may be nil.
func NewHandler(signer *Signer, cs *communitystore.Store, audit *auditlog.Logger, pub events.Publisher, m *metrics.Metrics, logger *zap.Logger) *Handler {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Handler{
		Signer:      signer,
		Communities: cs,
		Audit:       audit,
		Events:      pub,
		Metrics:     m,
		Log:         logger,
	}
}

// Routes returns the router mounted at /webhooks.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/organizations", h.HandleOrganizations)
	return r
}
