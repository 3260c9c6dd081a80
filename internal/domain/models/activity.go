// internal/domain/models/activity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReplyEvent is one entry of a user's activity feed: a direct reply to one
// of that user's threads.
type ReplyEvent struct {
	ParentThreadID  primitive.ObjectID `json:"parent_thread_id"`
	ReplyID         primitive.ObjectID `json:"reply_id"`
	ReplierID       primitive.ObjectID `json:"replier_id"`
	ReplierName     string             `json:"replier_name"`
	ReplierUsername string             `json:"replier_username"`
	ReplierImage    string             `json:"replier_image,omitempty"`
	ReplyText       string             `json:"reply_text"`
	CreatedAt       time.Time          `json:"created_at"`
}
