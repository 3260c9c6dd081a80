// Package threadqueries reads threads and resolves their authors,
// communities and replies into views.
package threadqueries

import (
	"context"
	"errors"
	"strings"

	communitystore "github.com/dalemusser/threadhub/internal/app/store/communities"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// NewestFirst is the global thread order. ObjectIDs break ties between
// threads created in the same millisecond.
var NewestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// Reader answers thread reads.
type Reader struct {
	c           *mongo.Collection
	users       *userstore.Store
	communities *communitystore.Store
}

// New creates a Reader over db.
func New(db *mongo.Database, users *userstore.Store, communities *communitystore.Store) *Reader {
	return &Reader{
		c:           db.Collection("threads"),
		users:       users,
		communities: communities,
	}
}

// GetThread returns the thread with its author, community and the whole
// reply tree beneath it.
func (r *Reader) GetThread(ctx context.Context, id string) (models.ThreadView, error) {
	const op = "threadqueries.GetThread"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return models.ThreadView{}, apperr.E(op, apperr.InvalidArgument, "invalid thread id")
	}

	var root models.Thread
	err = r.c.FindOne(ctx, bson.M{"_id": oid}).Decode(&root)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ThreadView{}, apperr.Wrap(op, apperr.NotFound, "thread not found", err)
	}
	if err != nil {
		return models.ThreadView{}, apperr.FromStore(op, err)
	}

	// Breadth-first, one query per level.
	byID := map[primitive.ObjectID]models.Thread{root.ID: root}
	level := root.ChildIDs
	for len(level) > 0 {
		pending := make([]primitive.ObjectID, 0, len(level))
		for _, cid := range level {
			if _, seen := byID[cid]; !seen {
				pending = append(pending, cid)
			}
		}
		if len(pending) == 0 {
			break
		}
		kids, err := r.findByIDs(ctx, pending)
		if err != nil {
			return models.ThreadView{}, apperr.FromStore(op, err)
		}
		level = nil
		for _, k := range kids {
			if _, seen := byID[k.ID]; seen {
				continue
			}
			byID[k.ID] = k
			level = append(level, k.ChildIDs...)
		}
	}

	all := make([]models.Thread, 0, len(byID))
	for _, t := range byID {
		all = append(all, t)
	}
	rs, err := r.resolve(ctx, all)
	if err != nil {
		return models.ThreadView{}, apperr.FromStore(op, err)
	}

	placed := map[primitive.ObjectID]bool{}
	var build func(t models.Thread) models.ThreadView
	build = func(t models.Thread) models.ThreadView {
		placed[t.ID] = true
		v := rs.view(t)
		for _, cid := range t.ChildIDs {
			child, ok := byID[cid]
			if !ok || placed[cid] {
				continue
			}
			v.Children = append(v.Children, build(child))
		}
		return v
	}
	return build(root), nil
}

// GetThreadsByAuthor pages through everything authorID posted, replies
// included, newest first, each with its direct replies.
func (r *Reader) GetThreadsByAuthor(ctx context.Context, authorID primitive.ObjectID, page, pageSize int) (models.ThreadPage, error) {
	p, err := r.Page(ctx, bson.M{"author_id": authorID}, NewestFirst, paging.New(page, pageSize))
	if err != nil {
		return models.ThreadPage{}, apperr.FromStore("threadqueries.GetThreadsByAuthor", err)
	}
	return p, nil
}

// Page runs filter with sort, counting concurrently, and returns the page
// with one level of replies resolved. Errors are raw driver errors.
func (r *Reader) Page(ctx context.Context, filter bson.M, sort bson.D, pg paging.Page) (models.ThreadPage, error) {
	var (
		rows  = []models.Thread{}
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cur, err := r.c.Find(gctx, filter, options.Find().
			SetSort(sort).
			SetSkip(pg.Skip()).
			SetLimit(pg.Limit()))
		if err != nil {
			return err
		}
		defer cur.Close(gctx)
		return cur.All(gctx, &rows)
	})
	g.Go(func() error {
		n, err := r.c.CountDocuments(gctx, filter)
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return models.ThreadPage{}, err
	}

	views, err := r.WithReplies(ctx, rows)
	if err != nil {
		return models.ThreadPage{}, err
	}
	return models.ThreadPage{
		Threads:     views,
		TotalPages:  pg.TotalPages(total),
		CurrentPage: pg.Number,
		IsNext:      pg.HasNext(total, len(rows)),
	}, nil
}

// WithReplies converts threads to views carrying their direct replies,
// preserving the order of threads and of each thread's child_ids.
func (r *Reader) WithReplies(ctx context.Context, threads []models.Thread) ([]models.ThreadView, error) {
	out := make([]models.ThreadView, 0, len(threads))
	if len(threads) == 0 {
		return out, nil
	}

	var childIDs []primitive.ObjectID
	for _, t := range threads {
		childIDs = append(childIDs, t.ChildIDs...)
	}
	kids, err := r.findByIDs(ctx, childIDs)
	if err != nil {
		return nil, err
	}
	kidByID := make(map[primitive.ObjectID]models.Thread, len(kids))
	for _, k := range kids {
		kidByID[k.ID] = k
	}

	rs, err := r.resolve(ctx, append(append([]models.Thread{}, threads...), kids...))
	if err != nil {
		return nil, err
	}
	for _, t := range threads {
		v := rs.view(t)
		for _, cid := range t.ChildIDs {
			if k, ok := kidByID[cid]; ok {
				v.Children = append(v.Children, rs.view(k))
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *Reader) findByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Thread, error) {
	out := []models.Thread{}
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// resolved holds the batch-loaded references for a set of threads.
type resolved struct {
	authors     map[primitive.ObjectID]models.UserSummary
	communities map[primitive.ObjectID]models.CommunitySummary
}

// resolve loads every author and community referenced by threads, one
// query each, concurrently.
func (r *Reader) resolve(ctx context.Context, threads []models.Thread) (resolved, error) {
	authorSet := map[primitive.ObjectID]struct{}{}
	communitySet := map[primitive.ObjectID]struct{}{}
	for _, t := range threads {
		authorSet[t.AuthorID] = struct{}{}
		if t.CommunityID != nil {
			communitySet[*t.CommunityID] = struct{}{}
		}
	}

	var rs resolved
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := r.users.SummariesByIDs(gctx, keys(authorSet))
		rs.authors = m
		return err
	})
	g.Go(func() error {
		m, err := r.communities.SummariesByIDs(gctx, keys(communitySet))
		rs.communities = m
		return err
	})
	if err := g.Wait(); err != nil {
		return resolved{}, err
	}
	return rs, nil
}

func (rs resolved) view(t models.Thread) models.ThreadView {
	v := models.ThreadView{
		ID:        t.ID,
		Text:      t.Text,
		ParentID:  t.ParentID,
		ChildIDs:  t.ChildIDs,
		Children:  []models.ThreadView{},
		CreatedAt: t.CreatedAt,
	}
	if v.ChildIDs == nil {
		v.ChildIDs = []primitive.ObjectID{}
	}
	if a, ok := rs.authors[t.AuthorID]; ok {
		v.Author = &a
	}
	if t.CommunityID != nil {
		if c, ok := rs.communities[*t.CommunityID]; ok {
			v.Community = &c
		}
	}
	return v
}

func keys(set map[primitive.ObjectID]struct{}) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
