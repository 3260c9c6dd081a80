// internal/app/features/threads/handler.go
package threads

import (
	"github.com/dalemusser/threadhub/internal/app/store/queries/threadqueries"
	threadstore "github.com/dalemusser/threadhub/internal/app/store/threads"
	"github.com/dalemusser/threadhub/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Handler owns the thread create, reply and view handlers.
type Handler struct {
	Store   *threadstore.Store
	Reader  *threadqueries.Reader
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// NewHandler constructs a Handler. m may be nil.
func NewHandler(store *threadstore.Store, reader *threadqueries.Reader, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Store:   store,
		Reader:  reader,
		Metrics: m,
		Log:     logger,
	}
}
