// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/threadhub/internal/app/system/blob"
	"github.com/dalemusser/threadhub/internal/app/system/events"
	"github.com/dalemusser/threadhub/internal/app/system/metrics"
	"github.com/dalemusser/threadhub/internal/app/system/ratelimit"
	"github.com/dalemusser/threadhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and back-end dependencies for the app. Every
// client is created once in ConnectDB and handed to the stores and
// handlers that need it.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Metrics *metrics.Metrics
	Events  events.Publisher  // events.Noop when amqp_url is blank
	Limiter ratelimit.Allower // in-process when redis_url is blank
	Images  blob.Uploader     // nil when minio_endpoint is blank

	// Reconciler is nil when reconcile_interval is zero.
	Reconciler *workers.Reconciler
}
