// internal/app/store/communities/communitystore.go
package communitystore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/inputval"
	"github.com/dalemusser/threadhub/internal/app/system/normalize"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/app/system/txn"
	"github.com/dalemusser/threadhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Store struct {
	db      *mongo.Database
	c       *mongo.Collection
	users   *mongo.Collection
	threads *mongo.Collection
	log     *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:      db,
		c:       db.Collection("communities"),
		users:   db.Collection("users"),
		threads: db.Collection("threads"),
		log:     logger,
	}
}

// NewCommunity is the input to Create.
type NewCommunity struct {
	ExternalID        string `validate:"required" label:"External ID"`
	Name              string `validate:"required,max=100" label:"Name"`
	Username          string `validate:"max=100" label:"Slug"`
	ImageURL          string `validate:"omitempty,httpurl" label:"Image URL"`
	Bio               string `validate:"max=1000" label:"Bio"`
	CreatorExternalID string `validate:"required" label:"Creator"`
}

// Create inserts a community and appends it to the creator's
// community_ids. The creator must already have a profile.
func (s *Store) Create(ctx context.Context, in NewCommunity) (models.Community, error) {
	const op = "communitystore.Create"

	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Name = normalize.Name(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if res := inputval.Validate(in); res.HasErrors() {
		return models.Community{}, apperr.E(op, apperr.InvalidArgument, res.First())
	}

	now := time.Now().UTC()
	c := models.Community{
		ID:         primitive.NewObjectID(),
		ExternalID: in.ExternalID,
		Name:       in.Name,
		NameCI:     text.Fold(in.Name),
		Username:   in.Username,
		ImageURL:   in.ImageURL,
		Bio:        in.Bio,
		ThreadIDs:  []primitive.ObjectID{},
		MemberIDs:  []primitive.ObjectID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		creator, err := s.userID(ctx, op, in.CreatorExternalID)
		if err != nil {
			return err
		}
		c.CreatedBy = creator

		if _, err := s.c.InsertOne(ctx, c); err != nil {
			if wafflemongo.IsDup(err) {
				return apperr.Wrap(op, apperr.AlreadyExists, "a community with this id already exists", err)
			}
			return apperr.FromStore(op, err)
		}
		_, err = s.users.UpdateByID(ctx, creator, bson.M{"$addToSet": bson.M{"community_ids": c.ID}})
		if err != nil {
			return apperr.Wrap(op, apperr.Internal, "append community to creator", err)
		}
		return nil
	})
	if err != nil {
		return models.Community{}, err
	}
	return c, nil
}

// GetByExternalID loads a community by its organization id.
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (models.Community, error) {
	var c models.Community
	if err := s.c.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&c); err != nil {
		return models.Community{}, apperr.FromStore("communitystore.GetByExternalID", err)
	}
	return c, nil
}

// SummariesByIDs batch-loads the display fields for ids, keyed by id.
func (s *Store) SummariesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.CommunitySummary, error) {
	out := make(map[primitive.ObjectID]models.CommunitySummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	proj := options.Find().SetProjection(bson.M{"_id": 1, "external_id": 1, "name": 1, "image_url": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, apperr.FromStore("communitystore.SummariesByIDs", err)
	}
	defer cur.Close(ctx)

	var rows []models.CommunitySummary
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperr.FromStore("communitystore.SummariesByIDs", err)
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

// GetDetail loads a community with its creator and members resolved.
// Members keep join order; members whose profile is gone are skipped.
func (s *Store) GetDetail(ctx context.Context, externalID string) (models.CommunityDetail, error) {
	const op = "communitystore.GetDetail"

	c, err := s.GetByExternalID(ctx, externalID)
	if err != nil {
		return models.CommunityDetail{}, err
	}

	ids := append([]primitive.ObjectID{c.CreatedBy}, c.MemberIDs...)
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1, "external_id": 1, "username": 1, "name": 1, "image_url": 1}))
	if err != nil {
		return models.CommunityDetail{}, apperr.FromStore(op, err)
	}
	defer cur.Close(ctx)

	var rows []models.UserSummary
	if err := cur.All(ctx, &rows); err != nil {
		return models.CommunityDetail{}, apperr.FromStore(op, err)
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	d := models.CommunityDetail{Community: c, Members: []models.UserSummary{}}
	if creator, ok := byID[c.CreatedBy]; ok {
		d.Creator = &creator
	}
	for _, id := range c.MemberIDs {
		if u, ok := byID[id]; ok {
			d.Members = append(d.Members, u)
		}
	}
	return d, nil
}

// ListParams filters and pages a community listing.
type ListParams struct {
	Search   string
	Page     int
	PageSize int
	// Sort is "desc" (newest first, the default) or "asc".
	Sort string
}

// List returns communities whose name or slug contains Search, ordered by
// creation time.
func (s *Store) List(ctx context.Context, p ListParams) (models.CommunityPage, error) {
	const op = "communitystore.List"

	pg := paging.New(p.Page, p.PageSize)
	filter := bson.M{}
	if term := normalize.QueryParam(p.Search); term != "" {
		filter["$or"] = bson.A{
			bson.M{"name_ci": bson.M{"$regex": regexp.QuoteMeta(text.Fold(term))}},
			bson.M{"username": bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}},
		}
	}
	dir := normalize.Direction(p.Sort)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(pg.Skip()).
		SetLimit(pg.Limit())

	var (
		items = []models.Community{}
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cur, err := s.c.Find(gctx, filter, opts)
		if err != nil {
			return err
		}
		defer cur.Close(gctx)
		return cur.All(gctx, &items)
	})
	g.Go(func() error {
		n, err := s.c.CountDocuments(gctx, filter)
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return models.CommunityPage{}, apperr.FromStore(op, err)
	}

	return models.CommunityPage{
		Communities: items,
		TotalPages:  pg.TotalPages(total),
		CurrentPage: pg.Number,
		IsNext:      pg.HasNext(total, len(items)),
	}, nil
}

func (s *Store) userID(ctx context.Context, op, externalID string) (primitive.ObjectID, error) {
	var row struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := s.users.FindOne(ctx, bson.M{"external_id": externalID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&row)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return primitive.NilObjectID, apperr.Wrap(op, apperr.NotFound, "user not found", err)
		}
		return primitive.NilObjectID, apperr.FromStore(op, err)
	}
	return row.ID, nil
}

func (s *Store) communityID(ctx context.Context, op, externalID string) (primitive.ObjectID, error) {
	var row struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := s.c.FindOne(ctx, bson.M{"external_id": externalID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&row)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return primitive.NilObjectID, apperr.Wrap(op, apperr.NotFound, "community not found", err)
		}
		return primitive.NilObjectID, apperr.FromStore(op, err)
	}
	return row.ID, nil
}
