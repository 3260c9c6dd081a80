// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/threadhub/internal/app/features/shared/respond"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// body is the JSON error envelope.
type body struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Status maps an error kind to its HTTP status.
func Status(k apperr.Kind) int {
	switch k {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.InvalidArgument:
		return http.StatusBadRequest
	case apperr.AlreadyExists:
		return http.StatusConflict
	case apperr.DependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Write renders err as a JSON error. Server-side failures are logged with
// the request path; their details are not sent to the client.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := Status(kind)
	msg := apperr.Message(err)

	if status >= 500 {
		if log != nil {
			log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("kind", kind.String()),
				zap.Error(err))
		}
		if kind == apperr.Internal {
			msg = "internal error"
		}
	}

	respond.JSON(w, status, body{Error: kind.String(), Message: msg})
}

// Unauthorized renders a 401 for requests without a valid identity.
func Unauthorized(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "sign in required"
	}
	respond.JSON(w, http.StatusUnauthorized, body{Error: "unauthorized", Message: msg})
}

// Forbidden renders a 403 with a reason code.
func Forbidden(w http.ResponseWriter, code, msg string) {
	respond.JSON(w, http.StatusForbidden, body{Error: code, Message: msg})
}

// TooManyRequests renders a 429.
func TooManyRequests(w http.ResponseWriter, msg string) {
	respond.JSON(w, http.StatusTooManyRequests, body{Error: "rate_limited", Message: msg})
}

// BadRequest renders a 400 for malformed request bodies.
func BadRequest(w http.ResponseWriter, msg string) {
	respond.JSON(w, http.StatusBadRequest, body{Error: apperr.InvalidArgument.String(), Message: msg})
}
