package userstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/threadhub/internal/app/system/inputval"
	"github.com/dalemusser/threadhub/internal/app/system/normalize"
	"github.com/dalemusser/threadhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProfileInput is the profile-completion form.
type ProfileInput struct {
	ExternalID string `validate:"required" label:"External ID"`
	Username   string `validate:"required,username" label:"Username"`
	Name       string `validate:"required,max=50" label:"Name"`
	Bio        string `validate:"max=1000" label:"Bio"`
	// ImageURL is kept as-is when empty.
	ImageURL string `validate:"omitempty,httpurl" label:"Image URL"`
}

// UpsertProfile creates or updates the profile for in.ExternalID and marks
// it onboarded. Back-reference arrays start empty on insert and are never
// touched here.
func (s *Store) UpsertProfile(ctx context.Context, in ProfileInput) (models.User, error) {
	const op = "userstore.UpsertProfile"

	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Username = normalize.Username(in.Username)
	in.Name = normalize.Name(in.Name)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if res := inputval.Validate(in); res.HasErrors() {
		return models.User{}, apperr.E(op, apperr.InvalidArgument, res.First())
	}

	now := time.Now().UTC()
	set := bson.M{
		"username":   in.Username,
		"name":       in.Name,
		"name_ci":    text.Fold(in.Name),
		"bio":        htmlsanitize.Bio(in.Bio),
		"onboarded":  true,
		"updated_at": now,
	}
	if in.ImageURL != "" {
		set["image_url"] = in.ImageURL
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"thread_ids":    []primitive.ObjectID{},
			"community_ids": []primitive.ObjectID{},
			"created_at":    now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"external_id": in.ExternalID}, update, opts).Decode(&u)
	if err != nil && wafflemongo.IsDup(err) && !strings.Contains(err.Error(), "username") {
		// Two first-time upserts for the same external id raced; the loser
		// now finds the winner's document and updates it.
		err = s.c.FindOneAndUpdate(ctx, bson.M{"external_id": in.ExternalID}, update, opts).Decode(&u)
	}
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, apperr.Wrap(op, apperr.InvalidArgument, ErrDuplicateUsername.Error(), ErrDuplicateUsername)
		}
		return models.User{}, apperr.FromStore(op, err)
	}
	return u, nil
}
