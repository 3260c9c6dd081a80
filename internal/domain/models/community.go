// internal/domain/models/community.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Community is a named group that threads can be posted into.
// ExternalID comes from the organization-management system.
type Community struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ExternalID string               `bson:"external_id" json:"external_id"`
	Name       string               `bson:"name" json:"name"`
	NameCI     string               `bson:"name_ci" json:"-"`
	Username   string               `bson:"username" json:"username"`
	ImageURL   string               `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Bio        string               `bson:"bio,omitempty" json:"bio,omitempty"`
	CreatedBy  primitive.ObjectID   `bson:"created_by" json:"created_by"`
	ThreadIDs  []primitive.ObjectID `bson:"thread_ids" json:"thread_ids"`
	MemberIDs  []primitive.ObjectID `bson:"member_ids" json:"member_ids"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CommunitySummary is the community shape embedded in thread views.
type CommunitySummary struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	ExternalID string             `bson:"external_id" json:"external_id"`
	Name       string             `bson:"name" json:"name"`
	ImageURL   string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
}

// Summary projects the fields that thread views expose about a community.
func (c Community) Summary() CommunitySummary {
	return CommunitySummary{
		ID:         c.ID,
		ExternalID: c.ExternalID,
		Name:       c.Name,
		ImageURL:   c.ImageURL,
	}
}

// CommunityDetail is a community with its creator and members resolved.
type CommunityDetail struct {
	Community
	Creator *UserSummary  `json:"creator,omitempty"`
	Members []UserSummary `json:"members"`
}

// CommunityPage is one page of a community listing.
type CommunityPage struct {
	Communities []Community `json:"communities"`
	TotalPages  int         `json:"total_pages"`
	CurrentPage int         `json:"current_page"`
	IsNext      bool        `json:"is_next"`
}
