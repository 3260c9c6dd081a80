package ratelimit

import (
	"net/http"

	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"go.uber.org/zap"
)

// Writes limits write requests per caller: the external user id when the
// request is signed in, the client IP otherwise. If the limiter backend
// fails the request is let through and the failure logged.
func Writes(a Allower, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a == nil {
				next.ServeHTTP(w, r)
				return
			}
			key := "ip:" + ClientIP(r)
			if id, ok := auth.ExternalID(r); ok {
				key = "user:" + id
			}

			allowed, err := a.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable; allowing request", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				errorsfeature.TooManyRequests(w, "Too many posts. Please wait a moment and try again.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
