// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/threadhub/internal/app/system/blob"
	"github.com/dalemusser/threadhub/internal/app/system/events"
	"github.com/dalemusser/threadhub/internal/app/system/indexes"
	"github.com/dalemusser/threadhub/internal/app/system/metrics"
	"github.com/dalemusser/threadhub/internal/app/system/ratelimit"
	"github.com/dalemusser/threadhub/internal/app/system/validators"
	"github.com/dalemusser/threadhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects MongoDB and the optional back ends: RabbitMQ for
// events, Redis for rate limiting and MinIO for images. A back end that is
// configured but unreachable fails startup; one that is not configured
// falls back as documented on DBDeps.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	client, err := Mongo(ctx, appCfg)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, err
	}
	deps.MongoClient = client
	deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = metrics.New(reg)

	deps.Events = events.Noop{}
	if appCfg.AMQPURL != "" {
		pub, err := events.NewRabbit(appCfg.AMQPURL, appCfg.AMQPExchange)
		if err != nil {
			closeAll(ctx, deps, logger)
			return DBDeps{}, fmt.Errorf("rabbitmq: %w", err)
		}
		deps.Events = events.Instrumented(pub, deps.Metrics.Event)
		logger.Info("publishing events", zap.String("exchange", appCfg.AMQPExchange))
	}

	if appCfg.RedisURL != "" {
		lim, err := ratelimit.NewRedis(ctx, appCfg.RedisURL, appCfg.WriteRateLimit, appCfg.WriteRateWindow)
		if err != nil {
			closeAll(ctx, deps, logger)
			return DBDeps{}, fmt.Errorf("redis: %w", err)
		}
		deps.Limiter = lim
	} else {
		deps.Limiter = ratelimit.New(appCfg.WriteRateLimit, appCfg.WriteRateWindow)
	}

	if appCfg.MinioEndpoint != "" {
		up, err := blob.NewMinio(ctx, blob.Config{
			Endpoint:  appCfg.MinioEndpoint,
			AccessKey: appCfg.MinioAccessKey,
			SecretKey: appCfg.MinioSecretKey,
			Bucket:    appCfg.MinioBucket,
			UseSSL:    appCfg.MinioUseSSL,
			PublicURL: appCfg.MinioPublicURL,
		})
		if err != nil {
			closeAll(ctx, deps, logger)
			return DBDeps{}, err
		}
		deps.Images = up
	}

	if appCfg.ReconcileInterval > 0 {
		deps.Reconciler = workers.NewReconciler(deps.MongoDatabase, deps.Metrics, logger, appCfg.ReconcileInterval)
	}

	return deps, nil
}

// Mongo opens and pings a client using the pool settings in appCfg. The
// admin CLI shares it.
func Mongo(ctx context.Context, appCfg AppConfig) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// EnsureSchema applies collection validators, then indexes. Both are
// idempotent and safe to run on every start.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
