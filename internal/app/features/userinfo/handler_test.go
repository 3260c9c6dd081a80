package userinfo_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/threadhub/internal/app/features/userinfo"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/threadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestServeUserInfo(t *testing.T) {
	handler := userinfo.NewHandler()

	user := models.User{
		ID:         primitive.NewObjectID(),
		ExternalID: "user_abc",
		Username:   "abc",
		Name:       "Test User",
		Onboarded:  true,
	}

	tests := []struct {
		name          string
		req           *http.Request
		wantAuth      bool
		wantOnboarded bool
		wantUsername  string
	}{
		{"anonymous", httptest.NewRequest("GET", "/me", nil), false, false, ""},
		{"token without profile", testutil.WithExternalID(httptest.NewRequest("GET", "/me", nil), "user_new"), true, false, ""},
		{"onboarded", testutil.WithUser(httptest.NewRequest("GET", "/me", nil), user), true, true, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeUserInfo(rec, tt.req)

			if rec.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
			}

			var response struct {
				IsAuthenticated bool   `json:"isAuthenticated"`
				Onboarded       bool   `json:"onboarded"`
				Username        string `json:"username"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to parse response JSON: %v", err)
			}
			if response.IsAuthenticated != tt.wantAuth {
				t.Errorf("isAuthenticated: got %v, want %v", response.IsAuthenticated, tt.wantAuth)
			}
			if response.Onboarded != tt.wantOnboarded {
				t.Errorf("onboarded: got %v, want %v", response.Onboarded, tt.wantOnboarded)
			}
			if response.Username != tt.wantUsername {
				t.Errorf("username: got %q, want %q", response.Username, tt.wantUsername)
			}
		})
	}
}
