// Package events publishes notifications about completed writes so that
// downstream consumers (page caches, notification senders) can refresh the
// views a write affected. Publishing happens after the write has committed
// and never changes its outcome.
package events

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Routing keys.
const (
	KeyThreadCreated    = "thread.created"
	KeyReplyCreated     = "reply.created"
	KeyCommunityDeleted = "community.deleted"
)

// Publisher sends one event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
	Close() error
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close() error                                { return nil }

// ThreadCreated is published for new top-level threads.
type ThreadCreated struct {
	ThreadID    primitive.ObjectID  `json:"thread_id"`
	AuthorID    primitive.ObjectID  `json:"author_id"`
	CommunityID *primitive.ObjectID `json:"community_id,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ReplyCreated is published for new replies. ParentAuthorID lets consumers
// refresh the parent author's activity view without a lookup.
type ReplyCreated struct {
	ReplyID        primitive.ObjectID `json:"reply_id"`
	ParentID       primitive.ObjectID `json:"parent_id"`
	AuthorID       primitive.ObjectID `json:"author_id"`
	ParentAuthorID primitive.ObjectID `json:"parent_author_id"`
	CreatedAt      time.Time          `json:"created_at"`
}

// CommunityDeleted is published after a community cascade completes.
type CommunityDeleted struct {
	CommunityID    primitive.ObjectID `json:"community_id"`
	ExternalID     string             `json:"external_id"`
	DeletedThreads int64              `json:"deleted_threads"`
}
