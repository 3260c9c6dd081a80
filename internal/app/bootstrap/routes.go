// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	activityfeature "github.com/dalemusser/threadhub/internal/app/features/activity"
	communitiesfeature "github.com/dalemusser/threadhub/internal/app/features/communities"
	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	feedfeature "github.com/dalemusser/threadhub/internal/app/features/feed"
	healthfeature "github.com/dalemusser/threadhub/internal/app/features/health"
	profilefeature "github.com/dalemusser/threadhub/internal/app/features/profile"
	threadsfeature "github.com/dalemusser/threadhub/internal/app/features/threads"
	userinfofeature "github.com/dalemusser/threadhub/internal/app/features/userinfo"
	usersfeature "github.com/dalemusser/threadhub/internal/app/features/users"
	webhooksfeature "github.com/dalemusser/threadhub/internal/app/features/webhooks"
	"github.com/dalemusser/threadhub/internal/app/store/audit"
	communitystore "github.com/dalemusser/threadhub/internal/app/store/communities"
	"github.com/dalemusser/threadhub/internal/app/store/queries/activityqueries"
	"github.com/dalemusser/threadhub/internal/app/store/queries/feedqueries"
	"github.com/dalemusser/threadhub/internal/app/store/queries/threadqueries"
	threadstore "github.com/dalemusser/threadhub/internal/app/store/threads"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/auditlog"
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/dalemusser/threadhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed. Stores and query readers are built once here
// from deps and shared by the feature handlers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Stores and readers
	users := userstore.New(db, logger)
	communities := communitystore.New(db, logger)
	threads := threadstore.New(db, logger, deps.Events)
	threadReader := threadqueries.New(db, users, communities)
	feedReader := feedqueries.New(db, threadReader, users)
	activityReader := activityqueries.New(db, users)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{Admin: appCfg.AuditLogAdmin})

	// Identity: JWKS when configured, otherwise the shared HMAC secret.
	var verifier auth.Verifier
	if appCfg.IdentityJWKSURL != "" {
		verifier = auth.NewJWKSVerifier(appCfg.IdentityJWKSURL, appCfg.IdentityIssuer, time.Hour)
	} else {
		verifier = auth.NewHMACVerifier(appCfg.IdentityHMACSecret, appCfg.IdentityIssuer)
	}
	authMgr := auth.NewManager(verifier, users, logger)

	writes := ratelimit.Writes(deps.Limiter, logger)

	r := chi.NewRouter()
	r.Use(deps.Metrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		errorsfeature.Write(w, req, logger, apperr.E("route", apperr.NotFound, "no such endpoint"))
	})

	// Operational endpoints sit outside identity resolution.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", deps.Metrics.Handler())

	// Webhooks authenticate by signature, not bearer token.
	if appCfg.WebhookSecret != "" {
		signer, err := webhooksfeature.NewSigner(appCfg.WebhookSecret)
		if err != nil {
			logger.Error("webhook signer init failed", zap.Error(err))
			return nil, err
		}
		whHandler := webhooksfeature.NewHandler(signer, communities, auditLog, deps.Events, deps.Metrics, logger)
		r.Mount("/webhooks", webhooksfeature.Routes(whHandler))
	} else {
		logger.Warn("webhook_secret not set; organization webhooks are disabled")
	}

	r.Group(func(r chi.Router) {
		// Resolves the bearer token (if any) into the request context.
		r.Use(authMgr.LoadUser)

		userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

		threadsHandler := threadsfeature.NewHandler(threads, threadReader, deps.Metrics, logger)
		r.Mount("/threads", threadsfeature.Routes(threadsHandler, writes))

		feedfeature.Routes(r, feedfeature.NewHandler(feedReader, logger))

		activityHandler := activityfeature.NewHandler(activityReader, logger)
		r.Mount("/activity", activityfeature.Routes(activityHandler))

		usersHandler := usersfeature.NewHandler(users, threadReader, logger)
		r.Mount("/users", usersfeature.Routes(usersHandler))

		profileHandler := profilefeature.NewHandler(users, deps.Images, deps.Metrics, logger)
		r.Mount("/profile", profilefeature.Routes(profileHandler, writes))

		communitiesHandler := communitiesfeature.NewHandler(communities, feedReader, auditLog, deps.Metrics, logger)
		r.Mount("/communities", communitiesfeature.Routes(communitiesHandler, writes))
	})

	return r, nil
}
