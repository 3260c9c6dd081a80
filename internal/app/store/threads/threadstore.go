// internal/app/store/threads/threadstore.go
package threadstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/events"
	"github.com/dalemusser/threadhub/internal/app/system/inputval"
	"github.com/dalemusser/threadhub/internal/app/system/normalize"
	"github.com/dalemusser/threadhub/internal/app/system/txn"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Store writes threads and keeps the back-references that point at them
// (author thread_ids, community thread_ids, parent child_ids) in step.
type Store struct {
	db          *mongo.Database
	c           *mongo.Collection
	users       *mongo.Collection
	communities *mongo.Collection
	pub         events.Publisher
	log         *zap.Logger
}

// New creates a Store. A nil publisher discards events.
func New(db *mongo.Database, logger *zap.Logger, pub events.Publisher) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &Store{
		db:          db,
		c:           db.Collection("threads"),
		users:       db.Collection("users"),
		communities: db.Collection("communities"),
		pub:         pub,
		log:         logger,
	}
}

// textInput carries the bounds shared by threads and replies.
type textInput struct {
	Text string `validate:"required,min=10,max=1000" label:"Thread text"`
}

func validText(op, text string) (string, error) {
	in := textInput{Text: normalize.ThreadText(text)}
	if res := inputval.Validate(in); res.HasErrors() {
		return "", apperr.E(op, apperr.InvalidArgument, res.First())
	}
	return in.Text, nil
}

// NewThread is the input to CreateThread.
type NewThread struct {
	Text     string
	AuthorID primitive.ObjectID
	// CommunityExternalID is optional; empty posts to the global feed only.
	CommunityExternalID string
}

// CreateThread inserts a top-level thread and appends it to its author's
// and community's thread_ids.
func (s *Store) CreateThread(ctx context.Context, in NewThread) (models.Thread, error) {
	const op = "threadstore.CreateThread"

	body, err := validText(op, in.Text)
	if err != nil {
		return models.Thread{}, err
	}
	if in.AuthorID.IsZero() {
		return models.Thread{}, apperr.E(op, apperr.InvalidArgument, "Author is required.")
	}
	communityExt := strings.TrimSpace(in.CommunityExternalID)

	var th models.Thread
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		th = models.Thread{
			ID:        primitive.NewObjectID(),
			Text:      body,
			AuthorID:  in.AuthorID,
			ChildIDs:  []primitive.ObjectID{},
			CreatedAt: time.Now().UTC(),
		}

		if err := s.requireUser(ctx, op, in.AuthorID); err != nil {
			return err
		}
		if communityExt != "" {
			cid, err := s.communityID(ctx, op, communityExt)
			if err != nil {
				return err
			}
			th.CommunityID = &cid
		}

		if _, err := s.c.InsertOne(ctx, th); err != nil {
			return apperr.FromStore(op, err)
		}
		if err := s.push(ctx, s.users, in.AuthorID, "thread_ids", th.ID); err != nil {
			return apperr.Wrap(op, apperr.Internal, "append thread to author", err)
		}
		if th.CommunityID != nil {
			if err := s.push(ctx, s.communities, *th.CommunityID, "thread_ids", th.ID); err != nil {
				return apperr.Wrap(op, apperr.Internal, "append thread to community", err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Thread{}, err
	}

	s.publish(ctx, events.KeyThreadCreated, events.ThreadCreated{
		ThreadID:    th.ID,
		AuthorID:    th.AuthorID,
		CommunityID: th.CommunityID,
		CreatedAt:   th.CreatedAt,
	})
	return th, nil
}

// CreateReply inserts a reply under parentID and appends it to the parent's
// child_ids and the author's thread_ids. Replies never belong to a
// community directly.
func (s *Store) CreateReply(ctx context.Context, parentID, text string, authorID primitive.ObjectID) (models.Thread, error) {
	const op = "threadstore.CreateReply"

	pid, err := primitive.ObjectIDFromHex(strings.TrimSpace(parentID))
	if err != nil {
		return models.Thread{}, apperr.E(op, apperr.InvalidArgument, "invalid thread id")
	}
	body, err := validText(op, text)
	if err != nil {
		return models.Thread{}, err
	}
	if authorID.IsZero() {
		return models.Thread{}, apperr.E(op, apperr.InvalidArgument, "Author is required.")
	}

	var (
		th           models.Thread
		parentAuthor primitive.ObjectID
	)
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var parent struct {
			AuthorID primitive.ObjectID `bson:"author_id"`
		}
		err := s.c.FindOne(ctx, bson.M{"_id": pid},
			options.FindOne().SetProjection(bson.M{"author_id": 1})).Decode(&parent)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.Wrap(op, apperr.NotFound, "thread not found", err)
		}
		if err != nil {
			return apperr.FromStore(op, err)
		}
		parentAuthor = parent.AuthorID

		if err := s.requireUser(ctx, op, authorID); err != nil {
			return err
		}

		th = models.Thread{
			ID:        primitive.NewObjectID(),
			Text:      body,
			AuthorID:  authorID,
			ParentID:  &pid,
			ChildIDs:  []primitive.ObjectID{},
			CreatedAt: time.Now().UTC(),
		}
		if _, err := s.c.InsertOne(ctx, th); err != nil {
			return apperr.FromStore(op, err)
		}
		if err := s.push(ctx, s.c, pid, "child_ids", th.ID); err != nil {
			return apperr.Wrap(op, apperr.Internal, "append reply to parent", err)
		}
		if err := s.push(ctx, s.users, authorID, "thread_ids", th.ID); err != nil {
			return apperr.Wrap(op, apperr.Internal, "append reply to author", err)
		}
		return nil
	})
	if err != nil {
		return models.Thread{}, err
	}

	s.publish(ctx, events.KeyReplyCreated, events.ReplyCreated{
		ReplyID:        th.ID,
		ParentID:       pid,
		AuthorID:       authorID,
		ParentAuthorID: parentAuthor,
		CreatedAt:      th.CreatedAt,
	})
	return th, nil
}

func (s *Store) requireUser(ctx context.Context, op string, id primitive.ObjectID) error {
	err := s.users.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Wrap(op, apperr.NotFound, "author not found", err)
	}
	return apperr.FromStore(op, err)
}

func (s *Store) communityID(ctx context.Context, op, externalID string) (primitive.ObjectID, error) {
	var row struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := s.communities.FindOne(ctx, bson.M{"external_id": externalID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return primitive.NilObjectID, apperr.Wrap(op, apperr.NotFound, "community not found", err)
	}
	if err != nil {
		return primitive.NilObjectID, apperr.FromStore(op, err)
	}
	return row.ID, nil
}

// push appends val to field on one document. A missing document is an
// error: the caller verified it inside the same unit of work.
func (s *Store) push(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, field string, val primitive.ObjectID) error {
	res, err := coll.UpdateByID(ctx, id, bson.M{"$push": bson.M{field: val}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) publish(ctx context.Context, key string, ev any) {
	if err := s.pub.Publish(ctx, key, ev); err != nil {
		s.log.Warn("event publish failed", zap.String("key", key), zap.Error(err))
	}
}
