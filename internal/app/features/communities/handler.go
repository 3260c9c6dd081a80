// internal/app/features/communities/handler.go
package communities

import (
	communitystore "github.com/dalemusser/threadhub/internal/app/store/communities"
	"github.com/dalemusser/threadhub/internal/app/store/queries/feedqueries"
	"github.com/dalemusser/threadhub/internal/app/system/auditlog"
	"github.com/dalemusser/threadhub/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Communities.
type Handler struct {
	Store   *communitystore.Store
	Feed    *feedqueries.Reader
	Audit   *auditlog.Logger
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// NewHandler constructs a Communities handler. audit and m may be nil.
func NewHandler(store *communitystore.Store, feed *feedqueries.Reader, audit *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Store:   store,
		Feed:    feed,
		Audit:   audit,
		Metrics: m,
		Log:     logger,
	}
}
