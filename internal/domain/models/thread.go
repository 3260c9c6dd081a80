// internal/domain/models/thread.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Thread text bounds, counted in characters (runes).
const (
	ThreadTextMin = 10
	ThreadTextMax = 1000
)

// Thread is a posted message. A nil ParentID marks a top-level thread;
// replies point at their parent, and the parent lists them in ChildIDs
// in arrival order.
type Thread struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Text        string               `bson:"text" json:"text"`
	AuthorID    primitive.ObjectID   `bson:"author_id" json:"author_id"`
	CommunityID *primitive.ObjectID  `bson:"community_id,omitempty" json:"community_id,omitempty"`
	ParentID    *primitive.ObjectID  `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	ChildIDs    []primitive.ObjectID `bson:"child_ids" json:"child_ids"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
}

// IsTopLevel reports whether t has no parent.
func (t Thread) IsTopLevel() bool { return t.ParentID == nil }

// ThreadView is a thread with its references resolved for display.
// Author is nil when the author record no longer exists.
type ThreadView struct {
	ID        primitive.ObjectID   `json:"id"`
	Text      string               `json:"text"`
	Author    *UserSummary         `json:"author"`
	Community *CommunitySummary    `json:"community,omitempty"`
	ParentID  *primitive.ObjectID  `json:"parent_id,omitempty"`
	ChildIDs  []primitive.ObjectID `json:"child_ids"`
	Children  []ThreadView         `json:"children"`
	CreatedAt time.Time            `json:"created_at"`
}

// ThreadPage is one page of a thread listing.
type ThreadPage struct {
	Threads     []ThreadView `json:"threads"`
	TotalPages  int          `json:"total_pages"`
	CurrentPage int          `json:"current_page"`
	IsNext      bool         `json:"is_next"`
}
