// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging level, CORS and request
// size limits. Everything threadhub needs beyond that lives here and is
// passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Identity provider. Bearer tokens are verified against the JWKS URL
	// when set, otherwise with the shared HMAC secret.
	IdentityJWKSURL    string
	IdentityHMACSecret string
	IdentityIssuer     string // blank skips the iss check

	// Organization webhook signing secret (whsec_...). Blank disables /webhooks.
	WebhookSecret string

	// Event publishing. Blank AMQPURL disables publishing.
	AMQPURL      string
	AMQPExchange string

	// Write rate limiting. Blank RedisURL uses a per-process limiter.
	RedisURL        string
	WriteRateLimit  int
	WriteRateWindow time.Duration

	// Profile image storage. Blank MinioEndpoint disables image uploads.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAdmin string

	// Back-reference repair interval. Zero disables the background worker.
	ReconcileInterval time.Duration

	// Database call deadlines applied by handlers (zero keeps the default)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
