// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/threadhub/internal/app/features/webhooks"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devHMACSecret lets a local instance accept tokens without an identity
// provider. ValidateConfig refuses it in prod.
const devHMACSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for threadhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, amqp_url, etc.
//   - Environment variables: THREADHUB_MONGO_URI, THREADHUB_AMQP_URL, etc.
//   - Command-line flags: --mongo_uri, --amqp_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "threadhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Identity provider
	{Name: "identity_jwks_url", Default: "", Desc: "JWKS URL for RS256 bearer tokens"},
	{Name: "identity_hmac_secret", Default: devHMACSecret, Desc: "Shared secret for HS256 bearer tokens (used when no JWKS URL is set)"},
	{Name: "identity_issuer", Default: "", Desc: "Required token issuer (blank skips the check)"},

	// Organization webhooks
	{Name: "webhook_secret", Default: "", Desc: "Organization webhook signing secret (whsec_...)"},

	// Events
	{Name: "amqp_url", Default: "", Desc: "RabbitMQ URL for domain events (blank disables publishing)"},
	{Name: "amqp_exchange", Default: "threadhub.events", Desc: "Topic exchange for domain events"},

	// Rate limiting
	{Name: "redis_url", Default: "", Desc: "Redis URL for the shared write limiter (blank uses an in-process limiter)"},
	{Name: "write_rate_limit", Default: 30, Desc: "Writes allowed per caller per window"},
	{Name: "write_rate_window", Default: "1m", Desc: "Write rate limit window (e.g., 1m, 30s)"},

	// Image storage
	{Name: "minio_endpoint", Default: "", Desc: "S3-compatible endpoint for profile images (blank disables uploads)"},
	{Name: "minio_access_key", Default: "", Desc: "Object storage access key"},
	{Name: "minio_secret_key", Default: "", Desc: "Object storage secret key"},
	{Name: "minio_bucket", Default: "threadhub", Desc: "Object storage bucket"},
	{Name: "minio_use_ssl", Default: false, Desc: "Use TLS for object storage"},
	{Name: "minio_public_url", Default: "", Desc: "Public base URL for stored images (derived from endpoint when blank)"},

	// Audit logging settings
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Background repair
	{Name: "reconcile_interval", Default: "0s", Desc: "Back-reference repair interval (0 disables)"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for listings and single-entity writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for multi-collection writes and thread trees"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// THREADHUB_* environment variables and flags, with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "THREADHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		IdentityJWKSURL:    appValues.String("identity_jwks_url"),
		IdentityHMACSecret: appValues.String("identity_hmac_secret"),
		IdentityIssuer:     appValues.String("identity_issuer"),

		WebhookSecret: appValues.String("webhook_secret"),

		AMQPURL:      appValues.String("amqp_url"),
		AMQPExchange: appValues.String("amqp_exchange"),

		RedisURL:        appValues.String("redis_url"),
		WriteRateLimit:  appValues.Int("write_rate_limit"),
		WriteRateWindow: appValues.Duration("write_rate_window", time.Minute),

		MinioEndpoint:  appValues.String("minio_endpoint"),
		MinioAccessKey: appValues.String("minio_access_key"),
		MinioSecretKey: appValues.String("minio_secret_key"),
		MinioBucket:    appValues.String("minio_bucket"),
		MinioUseSSL:    appValues.Bool("minio_use_ssl"),
		MinioPublicURL: appValues.String("minio_public_url"),

		AuditLogAdmin: appValues.String("audit_log_admin"),

		ReconcileInterval: appValues.Duration("reconcile_interval", 0),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It rejects a malformed MongoDB URI or webhook secret before anything
// connects, and in prod refuses to run on the development token secret.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.IdentityJWKSURL == "" && appCfg.IdentityHMACSecret == "" {
		return fmt.Errorf("one of identity_jwks_url or identity_hmac_secret must be set")
	}
	if coreCfg.Env == "prod" && appCfg.IdentityJWKSURL == "" && appCfg.IdentityHMACSecret == devHMACSecret {
		return fmt.Errorf("identity_hmac_secret must be changed from the development default in prod")
	}

	if appCfg.WebhookSecret != "" {
		if _, err := webhooks.NewSigner(appCfg.WebhookSecret); err != nil {
			return fmt.Errorf("invalid webhook_secret: %w", err)
		}
	}

	if appCfg.WriteRateLimit <= 0 || appCfg.WriteRateWindow <= 0 {
		return fmt.Errorf("write_rate_limit and write_rate_window must be positive")
	}
	if appCfg.ReconcileInterval < 0 {
		return fmt.Errorf("reconcile_interval must not be negative")
	}

	return nil
}
