package feed_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/threadhub/internal/app/features/feed"
	communitystore "github.com/dalemusser/threadhub/internal/app/store/communities"
	"github.com/dalemusser/threadhub/internal/app/store/queries/feedqueries"
	"github.com/dalemusser/threadhub/internal/app/store/queries/threadqueries"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/threadhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newRouter(db *mongo.Database) http.Handler {
	users := userstore.New(db, nil)
	reader := feedqueries.New(db, threadqueries.New(db, users, communitystore.New(db, nil)), users)
	r := chi.NewRouter()
	feed.Routes(r, feed.NewHandler(reader, zap.NewNop()))
	return r
}

func TestServeFeed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newRouter(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "author", "Author")
	threads := fx.CreateThreads(ctx, u, 25)
	fx.CreateReply(ctx, u, threads[0], "replies stay out of the feed")

	tests := []struct {
		name        string
		target      string
		wantLen     int
		wantPages   int
		wantCurrent int
	}{
		{"defaults", "/feed", 20, 2, 1},
		{"third page of ten", "/feed?page=3&pageSize=10", 5, 3, 3},
		{"invalid numbers fall back", "/feed?page=abc&pageSize=-5", 20, 2, 1},
		{"page below one clamps", "/feed?page=0&pageSize=10", 10, 3, 1},
		{"huge page is empty", "/feed?page=9223372036854775807&pageSize=100", 0, 1, paging.MaxPageNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.NewRecorder()
			router.ServeHTTP(w, testutil.NewRequest(http.MethodGet, tt.target))
			w.AssertStatus(t, http.StatusOK)

			var page models.ThreadPage
			w.Decode(t, &page)
			if len(page.Threads) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(page.Threads), tt.wantLen)
			}
			if page.TotalPages != tt.wantPages || page.CurrentPage != tt.wantCurrent {
				t.Errorf("page %d of %d, want %d of %d", page.CurrentPage, page.TotalPages, tt.wantCurrent, tt.wantPages)
			}
			for _, th := range page.Threads {
				if th.ParentID != nil {
					t.Errorf("feed returned reply %s", th.ID.Hex())
				}
			}
		})
	}
}

func TestServeSearch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newRouter(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "gopher", "Gopher Fan")
	fx.CreateThread(ctx, u, "all about goroutines", nil)
	fx.CreateThread(ctx, u, "nothing to see here", nil)

	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantLen   int
		wantPages int
	}{
		{"text match", "/search?q=GOROUTINE", http.StatusOK, 1, 1},
		{"author match", "/search?author=fan", http.StatusOK, 2, 1},
		{"no filters", "/search", http.StatusOK, 0, 0},
		{"no author match", "/search?q=here&author=zed", http.StatusOK, 0, 0},
		{"bad sort", "/search?q=here&sort=hot", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.NewRecorder()
			router.ServeHTTP(w, testutil.NewRequest(http.MethodGet, tt.target))
			w.AssertStatus(t, tt.wantCode)
			if tt.wantCode != http.StatusOK {
				w.AssertErrorKind(t, "invalid_argument")
				return
			}
			var page models.ThreadPage
			w.Decode(t, &page)
			if len(page.Threads) != tt.wantLen || page.TotalPages != tt.wantPages {
				t.Errorf("got %d threads over %d pages, want %d over %d",
					len(page.Threads), page.TotalPages, tt.wantLen, tt.wantPages)
			}
		})
	}
}
