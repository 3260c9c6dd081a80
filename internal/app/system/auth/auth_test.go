package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "test-secret-must-be-long-enough-0123456789"

type fakeResolver struct {
	users map[string]models.User
	err   error
}

func (f fakeResolver) ResolveUser(ctx context.Context, externalID string) (models.User, error) {
	if f.err != nil {
		return models.User{}, f.err
	}
	u, ok := f.users[externalID]
	if !ok {
		return models.User{}, apperr.E("users.resolve", apperr.NotFound, "user not found")
	}
	return u, nil
}

func signToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func newManager(res auth.Resolver) *auth.Manager {
	return auth.NewManager(auth.NewHMACVerifier(testSecret, ""), res, zap.NewNop())
}

// probe records what the middleware put in the context.
type probe struct {
	called     bool
	externalID string
	user       *models.User
}

func (p *probe) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.called = true
		p.externalID, _ = auth.ExternalID(r)
		p.user, _ = auth.CurrentUser(r)
		w.WriteHeader(http.StatusOK)
	})
}

func TestLoadUser_NoToken_PassesThrough(t *testing.T) {
	m := newManager(fakeResolver{})
	p := &probe{}

	req := httptest.NewRequest("GET", "/feed", nil)
	rec := httptest.NewRecorder()
	m.LoadUser(p.handler()).ServeHTTP(rec, req)

	if !p.called {
		t.Fatal("expected next handler to be called")
	}
	if p.externalID != "" || p.user != nil {
		t.Errorf("expected anonymous request, got externalID=%q user=%v", p.externalID, p.user)
	}
}

func TestLoadUser_ValidToken_ResolvesUser(t *testing.T) {
	u := models.User{ExternalID: "user_1", Username: "jane"}
	m := newManager(fakeResolver{users: map[string]models.User{"user_1": u}})
	p := &probe{}

	req := httptest.NewRequest("GET", "/feed", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user_1", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	m.LoadUser(p.handler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if p.externalID != "user_1" {
		t.Errorf("externalID = %q, want user_1", p.externalID)
	}
	if p.user == nil || p.user.Username != "jane" {
		t.Errorf("expected resolved user jane, got %v", p.user)
	}
}

func TestLoadUser_UnknownUser_KeepsExternalID(t *testing.T) {
	m := newManager(fakeResolver{users: map[string]models.User{}})
	p := &probe{}

	req := httptest.NewRequest("PUT", "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "new_user", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	m.LoadUser(p.handler()).ServeHTTP(rec, req)

	if p.externalID != "new_user" {
		t.Errorf("externalID = %q, want new_user", p.externalID)
	}
	if p.user != nil {
		t.Errorf("expected no user, got %v", p.user)
	}
}

func TestLoadUser_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"garbage", "Bearer not-a-jwt"},
		{"expired", "Bearer " + signToken(t, "user_1", time.Now().Add(-time.Hour))},
		{"empty subject", "Bearer " + signToken(t, "", time.Now().Add(time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(fakeResolver{})
			p := &probe{}

			req := httptest.NewRequest("GET", "/feed", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			m.LoadUser(p.handler()).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if p.called {
				t.Error("next handler should not run")
			}
		})
	}
}

func TestLoadUser_ResolverUnavailable(t *testing.T) {
	m := newManager(fakeResolver{err: apperr.Wrap("users.resolve", apperr.DependencyUnavailable, "storage unavailable", errors.New("no servers"))})

	req := httptest.NewRequest("GET", "/feed", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user_1", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	m.LoadUser((&probe{}).handler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRequireUser(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name string
		req  func() *http.Request
		want int
	}{
		{"anonymous", func() *http.Request { return httptest.NewRequest("POST", "/threads", nil) }, http.StatusUnauthorized},
		{"no profile", func() *http.Request {
			return auth.WithUser(httptest.NewRequest("POST", "/threads", nil), "user_1", nil)
		}, http.StatusForbidden},
		{"profile", func() *http.Request {
			return auth.WithUser(httptest.NewRequest("POST", "/threads", nil), "user_1", &models.User{ExternalID: "user_1"})
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			auth.RequireUser(ok).ServeHTTP(rec, tt.req())
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireSignedIn(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := httptest.NewRecorder()
	auth.RequireSignedIn(ok).ServeHTTP(rec, httptest.NewRequest("PUT", "/profile", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	auth.RequireSignedIn(ok).ServeHTTP(rec, auth.WithUser(httptest.NewRequest("PUT", "/profile", nil), "user_1", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("signed-in status = %d, want 200", rec.Code)
	}
}
