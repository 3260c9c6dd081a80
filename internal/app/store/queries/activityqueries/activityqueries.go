// Package activityqueries builds a user's activity feed: the replies other
// people (and the user) have posted under the user's threads.
package activityqueries

import (
	"context"
	"errors"

	"github.com/dalemusser/threadhub/internal/app/store/queries/threadqueries"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit applies when the caller asks for zero or fewer events.
const DefaultLimit = 30

// MaxLimit caps a single request.
const MaxLimit = 100

type Reader struct {
	threads *mongo.Collection
	users   *userstore.Store
}

func New(db *mongo.Database, users *userstore.Store) *Reader {
	return &Reader{threads: db.Collection("threads"), users: users}
}

// GetUserActivity returns up to limit direct replies to userID's threads,
// newest first.
func (r *Reader) GetUserActivity(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.ReplyEvent, error) {
	const op = "activityqueries.GetUserActivity"

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if _, err := r.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Wrap(op, apperr.NotFound, "user not found", err)
		}
		return nil, err
	}

	own, err := r.ownThreadIDs(ctx, userID)
	if err != nil {
		return nil, apperr.FromStore(op, err)
	}
	events := []models.ReplyEvent{}
	if len(own) == 0 {
		return events, nil
	}

	cur, err := r.threads.Find(ctx, bson.M{"parent_id": bson.M{"$in": own}}, options.Find().
		SetSort(threadqueries.NewestFirst).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, apperr.FromStore(op, err)
	}
	defer cur.Close(ctx)

	var replies []models.Thread
	if err := cur.All(ctx, &replies); err != nil {
		return nil, apperr.FromStore(op, err)
	}

	replierIDs := make([]primitive.ObjectID, 0, len(replies))
	for _, rp := range replies {
		replierIDs = append(replierIDs, rp.AuthorID)
	}
	repliers, err := r.users.SummariesByIDs(ctx, replierIDs)
	if err != nil {
		return nil, err
	}

	for _, rp := range replies {
		ev := models.ReplyEvent{
			ParentThreadID: *rp.ParentID,
			ReplyID:        rp.ID,
			ReplierID:      rp.AuthorID,
			ReplyText:      rp.Text,
			CreatedAt:      rp.CreatedAt,
		}
		if u, ok := repliers[rp.AuthorID]; ok {
			ev.ReplierName = u.Name
			ev.ReplierUsername = u.Username
			ev.ReplierImage = u.ImageURL
		}
		events = append(events, ev)
	}
	return events, nil
}

// ownThreadIDs reads authorship from the threads collection, not from the
// user's thread_ids back-reference.
func (r *Reader) ownThreadIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := r.threads.Find(ctx, bson.M{"author_id": userID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}
