package communitystore

import (
	"context"
	"errors"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Join adds the user to the community's members and the community to the
// user's community_ids. The member push is conditional on the user not
// already being a member, so concurrent joins cannot duplicate an entry.
func (s *Store) Join(ctx context.Context, communityExternalID, userExternalID string) error {
	const op = "communitystore.Join"

	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		uid, err := s.userID(ctx, op, userExternalID)
		if err != nil {
			return err
		}

		var joined struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		err = s.c.FindOneAndUpdate(ctx,
			bson.M{"external_id": communityExternalID, "member_ids": bson.M{"$ne": uid}},
			bson.M{"$push": bson.M{"member_ids": uid}},
			options.FindOneAndUpdate().SetProjection(bson.M{"_id": 1})).Decode(&joined)
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Either the community is missing or the user is already in it.
			if _, err := s.communityID(ctx, op, communityExternalID); err != nil {
				return err
			}
			return apperr.E(op, apperr.AlreadyExists, "already a member")
		}
		if err != nil {
			return apperr.FromStore(op, err)
		}
		cid := joined.ID

		if _, err := s.users.UpdateByID(ctx, uid, bson.M{"$addToSet": bson.M{"community_ids": cid}}); err != nil {
			return apperr.Wrap(op, apperr.Internal, "append community to user", err)
		}
		return nil
	})
}

// Leave removes the membership on both sides. Leaving a community the user
// is not a member of is a no-op.
func (s *Store) Leave(ctx context.Context, communityExternalID, userExternalID string) error {
	const op = "communitystore.Leave"

	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		uid, err := s.userID(ctx, op, userExternalID)
		if err != nil {
			return err
		}
		cid, err := s.communityID(ctx, op, communityExternalID)
		if err != nil {
			return err
		}

		if _, err := s.c.UpdateByID(ctx, cid, bson.M{"$pull": bson.M{"member_ids": uid}}); err != nil {
			return apperr.FromStore(op, err)
		}
		if _, err := s.users.UpdateByID(ctx, uid, bson.M{"$pull": bson.M{"community_ids": cid}}); err != nil {
			return apperr.Wrap(op, apperr.Internal, "remove community from user", err)
		}
		return nil
	})
}
