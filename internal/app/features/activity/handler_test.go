package activity_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/threadhub/internal/app/features/activity"
	"github.com/dalemusser/threadhub/internal/app/store/queries/activityqueries"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/threadhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func TestServeActivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := activity.NewHandler(activityqueries.New(db, userstore.New(db, nil)), zap.NewNop())
	router := chi.NewRouter()
	router.Mount("/activity", activity.Routes(h))

	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u1 := fx.CreateUser(ctx, "user1", "User One")
	u2 := fx.CreateUser(ctx, "user2", "User Two")
	a := fx.CreateThread(ctx, u1, "thread A by user one", nil)
	for i := 0; i < 3; i++ {
		fx.CreateReply(ctx, u2, a, "user two keeps replying")
	}

	tests := []struct {
		name     string
		req      *http.Request
		wantCode int
		wantLen  int
	}{
		{"default limit", testutil.WithUser(testutil.NewRequest(http.MethodGet, "/activity"), u1), http.StatusOK, 3},
		{"limit two", testutil.WithUser(testutil.NewRequest(http.MethodGet, "/activity?limit=2"), u1), http.StatusOK, 2},
		{"nothing for replier", testutil.WithUser(testutil.NewRequest(http.MethodGet, "/activity"), u2), http.StatusOK, 0},
		{"bad limit", testutil.WithUser(testutil.NewRequest(http.MethodGet, "/activity?limit=lots"), u1), http.StatusBadRequest, 0},
		{"anonymous", testutil.NewRequest(http.MethodGet, "/activity"), http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.NewRecorder()
			router.ServeHTTP(w, tt.req)
			w.AssertStatus(t, tt.wantCode)
			if tt.wantCode != http.StatusOK {
				return
			}
			var body struct {
				Events []models.ReplyEvent `json:"events"`
			}
			w.Decode(t, &body)
			if len(body.Events) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(body.Events), tt.wantLen)
			}
			for _, ev := range body.Events {
				if ev.ParentThreadID != a.ID || ev.ReplierUsername != "user2" {
					t.Errorf("event = %+v", ev)
				}
			}
		})
	}
}
