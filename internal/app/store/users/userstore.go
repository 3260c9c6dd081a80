// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/txn"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrDuplicateUsername is returned when another profile already holds the
// requested username.
var ErrDuplicateUsername = errors.New("username is already taken")

type Store struct {
	db          *mongo.Database
	c           *mongo.Collection
	communities *mongo.Collection
	log         *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:          db,
		c:           db.Collection("users"),
		communities: db.Collection("communities"),
		log:         logger,
	}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, apperr.FromStore("userstore.GetByID", err)
	}
	return u, nil
}

// GetByExternalID loads a user by the identity provider's id.
// A missing profile is NotFound.
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&u); err != nil {
		return models.User{}, apperr.FromStore("userstore.GetByExternalID", err)
	}
	return u, nil
}

// GetByIDs loads multiple users by their ObjectIDs. Missing ids are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperr.FromStore("userstore.GetByIDs", err)
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, apperr.FromStore("userstore.GetByIDs", err)
	}
	return users, nil
}

var summaryProjection = bson.M{"_id": 1, "external_id": 1, "username": 1, "name": 1, "image_url": 1}

// SummariesByIDs batch-loads the display fields for ids, keyed by id.
func (s *Store) SummariesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	out := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, apperr.FromStore("userstore.SummariesByIDs", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.UserSummary
		if err := cur.Decode(&u); err != nil {
			return nil, apperr.FromStore("userstore.SummariesByIDs", err)
		}
		out[u.ID] = u
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.FromStore("userstore.SummariesByIDs", err)
	}
	return out, nil
}

// FindIDsMatching returns the ids of users whose name or username contains
// term, ignoring case and diacritics on the name.
func (s *Store) FindIDsMatching(ctx context.Context, term string) ([]primitive.ObjectID, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []primitive.ObjectID{}, nil
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"name_ci": bson.M{"$regex": regexp.QuoteMeta(text.Fold(term))}},
		bson.M{"username": bson.M{"$regex": regexp.QuoteMeta(strings.ToLower(term))}},
	}}
	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, apperr.FromStore("userstore.FindIDsMatching", err)
	}
	defer cur.Close(ctx)

	ids := []primitive.ObjectID{}
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, apperr.FromStore("userstore.FindIDsMatching", err)
		}
		ids = append(ids, row.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.FromStore("userstore.FindIDsMatching", err)
	}
	return ids, nil
}

// Delete removes a user and their community memberships. Threads they
// wrote remain and render without an author.
func (s *Store) Delete(ctx context.Context, externalID string) (models.User, error) {
	const op = "userstore.Delete"

	var deleted models.User
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if err := s.c.FindOneAndDelete(ctx, bson.M{"external_id": externalID}).Decode(&deleted); err != nil {
			return apperr.FromStore(op, err)
		}
		_, err := s.communities.UpdateMany(ctx,
			bson.M{"member_ids": deleted.ID},
			bson.M{"$pull": bson.M{"member_ids": deleted.ID}})
		if err != nil {
			return apperr.Wrap(op, apperr.Internal, "remove community memberships", err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return deleted, nil
}
