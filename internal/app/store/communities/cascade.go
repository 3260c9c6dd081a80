package communitystore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/inputval"
	"github.com/dalemusser/threadhub/internal/app/system/normalize"
	"github.com/dalemusser/threadhub/internal/app/system/txn"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommunityUpdate carries the fields an organization update may change.
// Empty fields are left as they are.
type CommunityUpdate struct {
	Name     string `validate:"max=100" label:"Name"`
	Username string `validate:"max=100" label:"Slug"`
	ImageURL string `validate:"omitempty,httpurl" label:"Image URL"`
}

// Update modifies a community's mutable fields and refreshes UpdatedAt.
// It returns the updated community and the names of the fields that changed.
func (s *Store) Update(ctx context.Context, externalID string, up CommunityUpdate) (models.Community, []string, error) {
	const op = "communitystore.Update"

	up.Name = normalize.Name(up.Name)
	up.Username = strings.TrimSpace(up.Username)
	up.ImageURL = strings.TrimSpace(up.ImageURL)
	if res := inputval.Validate(up); res.HasErrors() {
		return models.Community{}, nil, apperr.E(op, apperr.InvalidArgument, res.First())
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	var changed []string
	if up.Name != "" {
		set["name"] = up.Name
		set["name_ci"] = text.Fold(up.Name)
		changed = append(changed, "name")
	}
	if up.Username != "" {
		set["username"] = up.Username
		changed = append(changed, "username")
	}
	if up.ImageURL != "" {
		set["image_url"] = up.ImageURL
		changed = append(changed, "image_url")
	}

	var c models.Community
	err := s.c.FindOneAndUpdate(ctx, bson.M{"external_id": externalID}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil {
		return models.Community{}, nil, apperr.FromStore(op, err)
	}
	return c, changed, nil
}

// CascadeResult reports what DeleteCascade removed.
type CascadeResult struct {
	Community      models.Community
	DeletedThreads int64
}

// DeleteCascade deletes a community together with its threads and all of
// their replies, then removes every reference to them: deleted thread ids
// from their authors and the community from its members and creator.
func (s *Store) DeleteCascade(ctx context.Context, externalID string) (CascadeResult, error) {
	const op = "communitystore.DeleteCascade"

	var res CascadeResult
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		res = CascadeResult{}
		if err := s.c.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&res.Community); err != nil {
			return apperr.FromStore(op, err)
		}
		cid := res.Community.ID

		ids, err := s.subtreeIDs(ctx, cid)
		if err != nil {
			return apperr.FromStore(op, err)
		}

		if len(ids) > 0 {
			in := bson.M{"$in": ids}
			if _, err := s.users.UpdateMany(ctx,
				bson.M{"thread_ids": in},
				bson.M{"$pull": bson.M{"thread_ids": in}}); err != nil {
				return apperr.Wrap(op, apperr.Internal, "remove threads from authors", err)
			}
			dr, err := s.threads.DeleteMany(ctx, bson.M{"_id": in})
			if err != nil {
				return apperr.Wrap(op, apperr.Internal, "delete threads", err)
			}
			res.DeletedThreads = dr.DeletedCount
		}

		if _, err := s.c.DeleteOne(ctx, bson.M{"_id": cid}); err != nil {
			return apperr.Wrap(op, apperr.Internal, "delete community", err)
		}
		if _, err := s.users.UpdateMany(ctx,
			bson.M{"community_ids": cid},
			bson.M{"$pull": bson.M{"community_ids": cid}}); err != nil {
			return apperr.Wrap(op, apperr.Internal, "remove community from users", err)
		}
		return nil
	})
	if err != nil {
		return CascadeResult{}, err
	}
	return res, nil
}

// subtreeIDs returns the ids of the community's threads and every reply
// beneath them, walking one level per query.
func (s *Store) subtreeIDs(ctx context.Context, communityID primitive.ObjectID) ([]primitive.ObjectID, error) {
	seen := map[primitive.ObjectID]bool{}
	var all []primitive.ObjectID

	level, err := s.idsWhere(ctx, bson.M{"community_id": communityID})
	if err != nil {
		return nil, err
	}
	for len(level) > 0 {
		var fresh []primitive.ObjectID
		for _, id := range level {
			if !seen[id] {
				seen[id] = true
				fresh = append(fresh, id)
			}
		}
		all = append(all, fresh...)
		if len(fresh) == 0 {
			break
		}
		level, err = s.idsWhere(ctx, bson.M{"parent_id": bson.M{"$in": fresh}})
		if err != nil {
			return nil, err
		}
	}
	return all, nil
}

func (s *Store) idsWhere(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := s.threads.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
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
