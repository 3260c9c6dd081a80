package feedqueries_test

import (
	"errors"
	"testing"

	communitystore "github.com/dalemusser/threadhub/internal/app/store/communities"
	"github.com/dalemusser/threadhub/internal/app/store/queries/feedqueries"
	"github.com/dalemusser/threadhub/internal/app/store/queries/threadqueries"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func newReader(db *mongo.Database) *feedqueries.Reader {
	users := userstore.New(db, nil)
	threads := threadqueries.New(db, users, communitystore.New(db, nil))
	return feedqueries.New(db, threads, users)
}

func TestListFeed_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := newReader(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateUser(ctx, "author", "Author")
	threads := fx.CreateThreads(ctx, author, 25)

	tests := []struct {
		name      string
		page      int
		wantLen   int
		wantFirst int // index into threads
		wantNext  bool
	}{
		{"first page", 1, 10, 24, true},
		{"second page", 2, 10, 14, true},
		{"last page", 3, 5, 4, false},
		{"past the end", 4, 0, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := r.ListFeed(ctx, tt.page, 10)
			if err != nil {
				t.Fatalf("ListFeed failed: %v", err)
			}
			if len(page.Threads) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(page.Threads), tt.wantLen)
			}
			if page.TotalPages != 3 {
				t.Errorf("TotalPages = %d, want 3", page.TotalPages)
			}
			if page.CurrentPage != tt.page {
				t.Errorf("CurrentPage = %d, want %d", page.CurrentPage, tt.page)
			}
			if page.IsNext != tt.wantNext {
				t.Errorf("IsNext = %v, want %v", page.IsNext, tt.wantNext)
			}
			if tt.wantFirst >= 0 && page.Threads[0].ID != threads[tt.wantFirst].ID {
				t.Errorf("first thread = %q, want %q", page.Threads[0].Text, threads[tt.wantFirst].Text)
			}
		})
	}
}

func TestListFeed_ExcludesReplies(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := newReader(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u1 := fx.CreateUser(ctx, "user1", "User One")
	u2 := fx.CreateUser(ctx, "user2", "User Two")
	a := fx.CreateThread(ctx, u1, "a top level thread", nil)
	b := fx.CreateReply(ctx, u2, a, "a reply that is newer")
	fx.CreateReply(ctx, u1, b, "a reply to the reply")

	page, err := r.ListFeed(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListFeed failed: %v", err)
	}
	if len(page.Threads) != 1 || page.Threads[0].ID != a.ID {
		t.Fatalf("feed = %+v", page.Threads)
	}
	if page.CurrentPage != 1 || page.TotalPages != 1 {
		t.Errorf("page meta = %d/%d", page.CurrentPage, page.TotalPages)
	}
	if kids := page.Threads[0].Children; len(kids) != 1 || kids[0].ID != b.ID {
		t.Errorf("children = %+v", kids)
	}
}

func TestSearchThreads(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := newReader(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ana := fx.CreateUser(ctx, "ana_g", "Ana García")
	bob := fx.CreateUser(ctx, "bobby", "Bob Stone")
	t1 := fx.CreateThread(ctx, ana, "Concurrency in Go is fun", nil)
	t2 := fx.CreateThread(ctx, bob, "learning go generics today", nil)
	t3 := fx.CreateThread(ctx, ana, "weekend hiking photos", nil)
	fx.CreateReply(ctx, bob, t1, "go channels are neat too")

	tests := []struct {
		name string
		p    feedqueries.SearchParams
		want []string
	}{
		{"text case-insensitive", feedqueries.SearchParams{Query: "GO"}, []string{t2.Text, t1.Text}},
		{"text oldest first", feedqueries.SearchParams{Query: "go", Sort: "oldest"}, []string{t1.Text, t2.Text}},
		{"regex characters are literal", feedqueries.SearchParams{Query: "go.*"}, nil},
		{"author by name", feedqueries.SearchParams{Author: "garcia"}, []string{t3.Text, t1.Text}},
		{"author by username", feedqueries.SearchParams{Author: "BOBB"}, []string{t2.Text}},
		{"author and text", feedqueries.SearchParams{Query: "hiking", Author: "ana"}, []string{t3.Text}},
		{"author without match", feedqueries.SearchParams{Query: "go", Author: "nobody"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := r.SearchThreads(ctx, tt.p)
			if err != nil {
				t.Fatalf("SearchThreads failed: %v", err)
			}
			if len(page.Threads) != len(tt.want) {
				t.Fatalf("got %d threads, want %d", len(page.Threads), len(tt.want))
			}
			for i, w := range tt.want {
				if page.Threads[i].Text != w {
					t.Errorf("[%d] = %q, want %q", i, page.Threads[i].Text, w)
				}
			}
		})
	}
}

func TestSearchThreads_EmptyFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := newReader(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateThreads(ctx, fx.CreateUser(ctx, "author", "Author"), 3)

	page, err := r.SearchThreads(ctx, feedqueries.SearchParams{Query: "   ", Page: 2})
	if err != nil {
		t.Fatalf("SearchThreads failed: %v", err)
	}
	if len(page.Threads) != 0 || page.TotalPages != 0 || page.IsNext {
		t.Errorf("empty search = %+v", page)
	}
	if page.Threads == nil {
		t.Error("threads should be an empty slice, not nil")
	}
}

func TestSearchThreads_UnknownSort(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := newReader(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := r.SearchThreads(ctx, feedqueries.SearchParams{Query: "go", Sort: "popular"})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("err = %v, want invalid argument", err)
	}
}

func TestCommunityPosts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := newReader(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u1 := fx.CreateUser(ctx, "user1", "User One")
	c := fx.CreateCommunity(ctx, "org_1", "Gophers", u1)
	d := fx.CreateThread(ctx, u1, "posted to the community", &c)
	fx.CreateThread(ctx, u1, "posted to the global feed", nil)

	page, err := r.CommunityPosts(ctx, "org_1", 1, 20)
	if err != nil {
		t.Fatalf("CommunityPosts failed: %v", err)
	}
	if len(page.Threads) != 1 || page.Threads[0].ID != d.ID {
		t.Fatalf("posts = %+v", page.Threads)
	}
	if page.Threads[0].Community == nil || page.Threads[0].Community.Name != "Gophers" {
		t.Errorf("community = %+v", page.Threads[0].Community)
	}

	if _, err := r.CommunityPosts(ctx, "org_missing", 1, 20); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing community err = %v", err)
	}
}
