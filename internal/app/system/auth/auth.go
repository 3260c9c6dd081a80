// Package auth identifies the caller of each request.
//
// An external identity provider issues bearer tokens whose subject is the
// caller's external user id. LoadUser verifies the token and resolves the
// external id to a stored profile; handlers read the result with
// CurrentUser and ExternalID.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.uber.org/zap"
)

// Resolver maps an external identity to a stored user. It returns an
// apperr NotFound error when no profile exists yet.
type Resolver interface {
	ResolveUser(ctx context.Context, externalID string) (models.User, error)
}

type ctxKey string

const identityKey ctxKey = "identity"

type identity struct {
	externalID string
	user       *models.User
}

// CurrentUser returns the caller's profile and whether one was resolved.
func CurrentUser(r *http.Request) (*models.User, bool) {
	id, ok := r.Context().Value(identityKey).(*identity)
	if !ok || id.user == nil {
		return nil, false
	}
	return id.user, true
}

// ExternalID returns the caller's external user id, present whenever the
// request carried a valid token even if no profile exists yet.
func ExternalID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(identityKey).(*identity)
	if !ok {
		return "", false
	}
	return id.externalID, true
}

// WithUser returns r carrying externalID and u (u may be nil).
// Handlers under test use it to skip token verification.
func WithUser(r *http.Request, externalID string, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), identityKey, &identity{externalID: externalID, user: u}))
}

// Manager holds what the identity middleware needs.
type Manager struct {
	verifier Verifier
	users    Resolver
	log      *zap.Logger
}

// NewManager builds a Manager.
func NewManager(v Verifier, users Resolver, logger *zap.Logger) *Manager {
	return &Manager{verifier: v, users: users, log: logger}
}

// LoadUser verifies a bearer token when one is present and injects the
// caller's identity. Requests without a token pass through anonymously;
// requests with a bad token are rejected.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearer(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		extID, err := m.verifier.Verify(r.Context(), raw)
		if err != nil {
			m.log.Debug("bearer token rejected", zap.Error(err))
			errorsfeature.Unauthorized(w, "invalid token")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		u, err := m.users.ResolveUser(ctx, extID)
		switch {
		case err == nil:
			r = WithUser(r, extID, &u)
		case errors.Is(err, apperr.ErrNotFound):
			r = WithUser(r, extID, nil)
		default:
			errorsfeature.Write(w, r, m.log, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects requests without a verified token.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ExternalID(r); !ok {
			errorsfeature.Unauthorized(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests whose caller has no stored profile.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ExternalID(r); !ok {
			errorsfeature.Unauthorized(w, "")
			return
		}
		if _, ok := CurrentUser(r); !ok {
			errorsfeature.Forbidden(w, "onboarding_required", "complete your profile first")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}
