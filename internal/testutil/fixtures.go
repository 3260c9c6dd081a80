package testutil

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data. Documents are
// inserted directly, with back-references kept consistent, so store tests
// do not depend on the code they are testing.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T

	// clock hands out strictly increasing timestamps so ordering
	// assertions do not depend on wall-clock resolution.
	clock time.Time
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t, clock: time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// CreateUser creates an onboarded user. The username doubles as the
// external id suffix.
func (f *Fixtures) CreateUser(ctx context.Context, username, name string) models.User {
	f.t.Helper()

	now := f.tick()
	u := models.User{
		ID:           primitive.NewObjectID(),
		ExternalID:   "user_" + username,
		Username:     strings.ToLower(username),
		Name:         name,
		NameCI:       text.Fold(name),
		Onboarded:    true,
		ThreadIDs:    []primitive.ObjectID{},
		CommunityIDs: []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateCommunity creates a community owned by creator. Like a real
// create, the creator is not a member until they join.
func (f *Fixtures) CreateCommunity(ctx context.Context, externalID, name string, creator models.User) models.Community {
	f.t.Helper()

	now := f.tick()
	c := models.Community{
		ID:         primitive.NewObjectID(),
		ExternalID: externalID,
		Name:       name,
		NameCI:     text.Fold(name),
		Username:   strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		CreatedBy:  creator.ID,
		ThreadIDs:  []primitive.ObjectID{},
		MemberIDs:  []primitive.ObjectID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("communities").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test community: %v", err)
	}
	f.push(ctx, "users", creator.ID, "community_ids", c.ID)
	return c
}

// CreateThread creates a top-level thread. community may be nil.
func (f *Fixtures) CreateThread(ctx context.Context, author models.User, body string, community *models.Community) models.Thread {
	f.t.Helper()

	th := models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      body,
		AuthorID:  author.ID,
		ChildIDs:  []primitive.ObjectID{},
		CreatedAt: f.tick(),
	}
	if community != nil {
		cid := community.ID
		th.CommunityID = &cid
	}
	if _, err := f.db.Collection("threads").InsertOne(ctx, th); err != nil {
		f.t.Fatalf("failed to create test thread: %v", err)
	}
	f.push(ctx, "users", author.ID, "thread_ids", th.ID)
	if community != nil {
		f.push(ctx, "communities", community.ID, "thread_ids", th.ID)
	}
	return th
}

// CreateReply creates a reply to parent.
func (f *Fixtures) CreateReply(ctx context.Context, author models.User, parent models.Thread, body string) models.Thread {
	f.t.Helper()

	pid := parent.ID
	th := models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      body,
		AuthorID:  author.ID,
		ParentID:  &pid,
		ChildIDs:  []primitive.ObjectID{},
		CreatedAt: f.tick(),
	}
	if _, err := f.db.Collection("threads").InsertOne(ctx, th); err != nil {
		f.t.Fatalf("failed to create test reply: %v", err)
	}
	f.push(ctx, "threads", parent.ID, "child_ids", th.ID)
	f.push(ctx, "users", author.ID, "thread_ids", th.ID)
	return th
}

// AddMember makes u a member of c on both sides.
func (f *Fixtures) AddMember(ctx context.Context, c models.Community, u models.User) {
	f.t.Helper()
	f.push(ctx, "communities", c.ID, "member_ids", u.ID)
	f.push(ctx, "users", u.ID, "community_ids", c.ID)
}

// CreateThreads creates n top-level threads by author, oldest first.
func (f *Fixtures) CreateThreads(ctx context.Context, author models.User, n int) []models.Thread {
	f.t.Helper()

	out := make([]models.Thread, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, f.CreateThread(ctx, author, fmt.Sprintf("fixture thread number %d", i+1), nil))
	}
	return out
}

func (f *Fixtures) push(ctx context.Context, coll string, id primitive.ObjectID, field string, val primitive.ObjectID) {
	f.t.Helper()
	_, err := f.db.Collection(coll).UpdateByID(ctx, id, bson.M{"$push": bson.M{field: val}})
	if err != nil {
		f.t.Fatalf("failed to update %s.%s: %v", coll, field, err)
	}
}
