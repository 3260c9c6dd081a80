// Package feedqueries lists and searches top-level threads.
package feedqueries

import (
	"context"
	"errors"
	"regexp"

	"github.com/dalemusser/threadhub/internal/app/store/queries/threadqueries"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/normalize"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// topLevel matches threads with no parent, whether the field is null or
// absent.
var topLevel = bson.M{"parent_id": nil}

// Reader answers feed, search and community listings.
type Reader struct {
	threads     *threadqueries.Reader
	users       *userstore.Store
	communities *mongo.Collection
}

// New creates a Reader.
func New(db *mongo.Database, threads *threadqueries.Reader, users *userstore.Store) *Reader {
	return &Reader{
		threads:     threads,
		users:       users,
		communities: db.Collection("communities"),
	}
}

// ListFeed pages through top-level threads, newest first. Pages are not a
// snapshot: a thread posted between requests shifts later pages by one.
func (r *Reader) ListFeed(ctx context.Context, page, pageSize int) (models.ThreadPage, error) {
	p, err := r.threads.Page(ctx, topLevel, threadqueries.NewestFirst, paging.New(page, pageSize))
	if err != nil {
		return models.ThreadPage{}, apperr.FromStore("feedqueries.ListFeed", err)
	}
	return p, nil
}

// SearchParams filters SearchThreads. Query matches thread text and Author
// matches a user's name or username, both as case-insensitive substrings.
type SearchParams struct {
	Query    string
	Author   string
	Sort     string // "latest" (default) or "oldest"
	Page     int
	PageSize int
}

// SearchThreads finds top-level threads matching every non-empty filter.
// With no filters it returns an empty page without querying.
func (r *Reader) SearchThreads(ctx context.Context, p SearchParams) (models.ThreadPage, error) {
	const op = "feedqueries.SearchThreads"

	pg := paging.New(p.Page, p.PageSize)
	sort := normalize.SearchSort(p.Sort)
	if sort == "" {
		return models.ThreadPage{}, apperr.E(op, apperr.InvalidArgument, "sort must be latest or oldest")
	}

	q := normalize.QueryParam(p.Query)
	author := normalize.QueryParam(p.Author)
	if q == "" && author == "" {
		return emptyPage(pg), nil
	}

	clauses := []bson.M{topLevel}
	if q != "" {
		clauses = append(clauses, bson.M{"text": bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}})
	}
	if author != "" {
		ids, err := r.users.FindIDsMatching(ctx, author)
		if err != nil {
			return models.ThreadPage{}, err
		}
		if len(ids) == 0 {
			return emptyPage(pg), nil
		}
		clauses = append(clauses, bson.M{"author_id": bson.M{"$in": ids}})
	}

	dir := -1
	if sort == normalize.SortOldest {
		dir = 1
	}
	order := bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}}

	out, err := r.threads.Page(ctx, bson.M{"$and": clauses}, order, pg)
	if err != nil {
		return models.ThreadPage{}, apperr.FromStore(op, err)
	}
	return out, nil
}

// CommunityPosts pages through the threads posted to a community.
func (r *Reader) CommunityPosts(ctx context.Context, communityExternalID string, page, pageSize int) (models.ThreadPage, error) {
	const op = "feedqueries.CommunityPosts"

	var row struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := r.communities.FindOne(ctx, bson.M{"external_id": communityExternalID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ThreadPage{}, apperr.Wrap(op, apperr.NotFound, "community not found", err)
	}
	if err != nil {
		return models.ThreadPage{}, apperr.FromStore(op, err)
	}

	out, err := r.threads.Page(ctx, bson.M{"community_id": row.ID}, threadqueries.NewestFirst, paging.New(page, pageSize))
	if err != nil {
		return models.ThreadPage{}, apperr.FromStore(op, err)
	}
	return out, nil
}

func emptyPage(pg paging.Page) models.ThreadPage {
	return models.ThreadPage{
		Threads:     []models.ThreadView{},
		TotalPages:  0,
		CurrentPage: pg.Number,
	}
}
