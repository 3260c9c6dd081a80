package communitystore_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	communitystore "github.com/dalemusser/threadhub/internal/app/store/communities"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/threadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func loadUser(t *testing.T, db *mongo.Database, id primitive.ObjectID) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var u models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		t.Fatalf("load user: %v", err)
	}
	return u
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func TestCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db, nil)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "creator", "Creator")

	c, err := store.Create(ctx, communitystore.NewCommunity{
		ExternalID:        "org_1",
		Name:              "  Go   Gophers ",
		Username:          "gophers",
		Bio:               "org bio",
		CreatorExternalID: creator.ExternalID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.Name != "Go Gophers" {
		t.Errorf("name = %q", c.Name)
	}
	if c.CreatedBy != creator.ID {
		t.Error("created_by should be the creator's id")
	}
	if !contains(loadUser(t, db, creator.ID).CommunityIDs, c.ID) {
		t.Error("community should be appended to the creator's community_ids")
	}

	_, err = store.Create(ctx, communitystore.NewCommunity{
		ExternalID: "org_1", Name: "Again", CreatorExternalID: creator.ExternalID,
	})
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate external id err = %v, want AlreadyExists", err)
	}

	_, err = store.Create(ctx, communitystore.NewCommunity{
		ExternalID: "org_2", Name: "Orphan", CreatorExternalID: "user_missing",
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing creator err = %v, want NotFound", err)
	}

	_, err = store.Create(ctx, communitystore.NewCommunity{ExternalID: "org_3", CreatorExternalID: creator.ExternalID})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("missing name err = %v, want InvalidArgument", err)
	}
}

func TestGetDetail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db, nil)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "creator", "Creator")
	m1 := fx.CreateUser(ctx, "member1", "Member One")
	m2 := fx.CreateUser(ctx, "member2", "Member Two")
	c := fx.CreateCommunity(ctx, "org_1", "Gophers", creator)
	fx.AddMember(ctx, c, m2)
	fx.AddMember(ctx, c, m1)

	d, err := store.GetDetail(ctx, "org_1")
	if err != nil {
		t.Fatalf("GetDetail failed: %v", err)
	}
	if d.Creator == nil || d.Creator.ID != creator.ID {
		t.Errorf("creator = %+v", d.Creator)
	}
	if len(d.Members) != 2 || d.Members[0].ID != m2.ID || d.Members[1].ID != m1.ID {
		t.Errorf("members should keep join order, got %+v", d.Members)
	}

	if _, err := store.GetDetail(ctx, "org_missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db, nil)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "creator", "Creator")
	for i := 1; i <= 25; i++ {
		fx.CreateCommunity(ctx, fmt.Sprintf("org_%02d", i), fmt.Sprintf("Community %02d", i), creator)
	}
	fx.CreateCommunity(ctx, "org_cafe", "Café Society", creator)

	tests := []struct {
		name      string
		params    communitystore.ListParams
		wantCount int
		wantPages int
		wantNext  bool
		wantFirst string
	}{
		{"default page", communitystore.ListParams{}, 20, 2, true, "org_cafe"},
		{"second page", communitystore.ListParams{Page: 2}, 6, 2, false, "org_06"},
		{"ascending", communitystore.ListParams{Sort: "asc", PageSize: 5}, 5, 6, true, "org_01"},
		{"search folds diacritics", communitystore.ListParams{Search: "cafe"}, 1, 1, false, "org_cafe"},
		{"search by slug", communitystore.ListParams{Search: "COMMUNITY-2"}, 6, 1, false, "org_25"},
		{"no match", communitystore.ListParams{Search: "zzz"}, 0, 0, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.List(ctx, tt.params)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(page.Communities) != tt.wantCount {
				t.Errorf("count = %d, want %d", len(page.Communities), tt.wantCount)
			}
			if page.TotalPages != tt.wantPages {
				t.Errorf("total pages = %d, want %d", page.TotalPages, tt.wantPages)
			}
			if page.IsNext != tt.wantNext {
				t.Errorf("is next = %v, want %v", page.IsNext, tt.wantNext)
			}
			if tt.wantFirst != "" && len(page.Communities) > 0 && page.Communities[0].ExternalID != tt.wantFirst {
				t.Errorf("first = %q, want %q", page.Communities[0].ExternalID, tt.wantFirst)
			}
		})
	}
}

func TestJoinAndLeave(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db, nil)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "creator", "Creator")
	u := fx.CreateUser(ctx, "joiner", "Joiner")
	c := fx.CreateCommunity(ctx, "org_1", "Gophers", creator)

	if err := store.Join(ctx, "org_1", u.ExternalID); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := store.Join(ctx, "org_1", u.ExternalID); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("second Join err = %v, want AlreadyExists", err)
	}

	d, _ := store.GetDetail(ctx, "org_1")
	if len(d.Members) != 1 || d.Members[0].ID != u.ID {
		t.Errorf("members = %+v, want only the joiner once", d.Members)
	}
	if !contains(loadUser(t, db, u.ID).CommunityIDs, c.ID) {
		t.Error("community should be in the user's community_ids")
	}

	if err := store.Join(ctx, "org_missing", u.ExternalID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Join missing community err = %v, want NotFound", err)
	}
	if err := store.Join(ctx, "org_1", "user_missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Join missing user err = %v, want NotFound", err)
	}

	if err := store.Leave(ctx, "org_1", u.ExternalID); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	d, _ = store.GetDetail(ctx, "org_1")
	if len(d.Members) != 0 {
		t.Errorf("members after leave = %+v", d.Members)
	}
	if contains(loadUser(t, db, u.ID).CommunityIDs, c.ID) {
		t.Error("community should be pulled from the user's community_ids")
	}

	if err := store.Leave(ctx, "org_missing", u.ExternalID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Leave missing community err = %v, want NotFound", err)
	}
	if err := store.Leave(ctx, "org_1", "user_missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Leave missing user err = %v, want NotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db, nil)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "creator", "Creator")
	orig := fx.CreateCommunity(ctx, "org_1", "Gophers", creator)

	c, changed, err := store.Update(ctx, "org_1", communitystore.CommunityUpdate{
		Name:     "Go Gophers",
		ImageURL: "https://img.example.com/logo.png",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if c.Name != "Go Gophers" || c.ImageURL != "https://img.example.com/logo.png" {
		t.Errorf("unexpected community %+v", c)
	}
	if c.Username != orig.Username {
		t.Error("empty username should be left unchanged")
	}
	if len(changed) != 2 {
		t.Errorf("changed = %v", changed)
	}

	if _, _, err := store.Update(ctx, "org_missing", communitystore.CommunityUpdate{Name: "x"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

// Deleting a community removes its threads and their replies everywhere,
// while threads outside it are untouched.
func TestDeleteCascade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db, nil)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u1 := fx.CreateUser(ctx, "user1", "User One")
	u2 := fx.CreateUser(ctx, "user2", "User Two")
	c := fx.CreateCommunity(ctx, "org_1", "Gophers", u1)
	fx.AddMember(ctx, c, u1)
	fx.AddMember(ctx, c, u2)

	t1 := fx.CreateThread(ctx, u1, "community thread one", &c)
	r1 := fx.CreateReply(ctx, u2, t1, "reply inside community")
	r2 := fx.CreateReply(ctx, u1, r1, "nested reply inside community")
	outside := fx.CreateThread(ctx, u2, "a thread outside the community", nil)

	res, err := store.DeleteCascade(ctx, "org_1")
	if err != nil {
		t.Fatalf("DeleteCascade failed: %v", err)
	}
	if res.DeletedThreads != 3 {
		t.Errorf("deleted threads = %d, want 3", res.DeletedThreads)
	}
	if res.Community.ID != c.ID {
		t.Error("result should carry the deleted community")
	}

	for _, id := range []primitive.ObjectID{t1.ID, r1.ID, r2.ID} {
		if n, _ := db.Collection("threads").CountDocuments(ctx, bson.M{"_id": id}); n != 0 {
			t.Errorf("thread %s should be deleted", id.Hex())
		}
	}
	if n, _ := db.Collection("threads").CountDocuments(ctx, bson.M{"_id": outside.ID}); n != 1 {
		t.Error("thread outside the community should remain")
	}
	if n, _ := db.Collection("communities").CountDocuments(ctx, bson.M{"_id": c.ID}); n != 0 {
		t.Error("community should be deleted")
	}

	for _, u := range []models.User{u1, u2} {
		got := loadUser(t, db, u.ID)
		if contains(got.CommunityIDs, c.ID) {
			t.Errorf("%s still lists the community", u.Username)
		}
		for _, id := range []primitive.ObjectID{t1.ID, r1.ID, r2.ID} {
			if contains(got.ThreadIDs, id) {
				t.Errorf("%s still lists deleted thread %s", u.Username, id.Hex())
			}
		}
	}
	if !contains(loadUser(t, db, u2.ID).ThreadIDs, outside.ID) {
		t.Error("unrelated thread id should stay on its author")
	}

	if _, err := store.DeleteCascade(ctx, "org_1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want NotFound", err)
	}
}

func TestJoin_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := communitystore.New(db, nil)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fx.CreateUser(ctx, "creator", "Creator")
	u := fx.CreateUser(ctx, "eager", "Eager Joiner")
	c := fx.CreateCommunity(ctx, "org_1", "Gophers", creator)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Join(ctx, "org_1", u.ExternalID)
		}()
	}
	wg.Wait()
	close(errs)

	var joined, already int
	for err := range errs {
		switch {
		case err == nil:
			joined++
		case errors.Is(err, apperr.ErrAlreadyExists):
			already++
		default:
			t.Errorf("Join failed: %v", err)
		}
	}
	if joined != 1 || already != n-1 {
		t.Errorf("joined = %d, already = %d, want 1 and %d", joined, already, n-1)
	}

	d, err := store.GetDetail(ctx, "org_1")
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(d.Members) != 1 {
		t.Errorf("members = %d, want 1", len(d.Members))
	}
	var ids int
	for _, id := range loadUser(t, db, u.ID).CommunityIDs {
		if id == c.ID {
			ids++
		}
	}
	if ids != 1 {
		t.Errorf("community listed %d times in user's community_ids, want 1", ids)
	}
}
