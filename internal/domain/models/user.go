// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a profile record keyed by the identity provider's external id.
//
// ThreadIDs and CommunityIDs are back-references maintained by the thread
// and community writers; they are never edited through the profile path.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ExternalID   string               `bson:"external_id" json:"external_id"`
	Username     string               `bson:"username" json:"username"` // always lowercase
	Name         string               `bson:"name" json:"name"`
	NameCI       string               `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Bio          string               `bson:"bio,omitempty" json:"bio,omitempty"`
	ImageURL     string               `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Onboarded    bool                 `bson:"onboarded" json:"onboarded"`
	ThreadIDs    []primitive.ObjectID `bson:"thread_ids" json:"thread_ids"`
	CommunityIDs []primitive.ObjectID `bson:"community_ids" json:"community_ids"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// UserSummary is the author shape embedded in thread and community views.
type UserSummary struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	ExternalID string             `bson:"external_id" json:"external_id"`
	Username   string             `bson:"username" json:"username"`
	Name       string             `bson:"name" json:"name"`
	ImageURL   string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
}

// Summary projects the fields that views expose about a user.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Username:   u.Username,
		Name:       u.Name,
		ImageURL:   u.ImageURL,
	}
}
