package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64              `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	User      *User              `bson:"-" json:"user,omitempty"` // Populated in response only
}

// OwnedBy reports whether userID is the post's owner.
func (p *Post) OwnedBy(userID primitive.ObjectID) bool {
	return !userID.IsZero() && p.UserID == userID
}
