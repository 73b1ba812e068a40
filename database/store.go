// Package database persists users and posts. MongoStore is the production
// backend; BadgerStore is an embedded alternative used for local runs and tests.
package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"postql/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrNotOwner          = errors.New("post is owned by another user")
)

// Store is the persistence collaborator of the resolvers. Post readers return
// posts with User populated; writers leave it nil.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)

	CreatePost(ctx context.Context, p *models.Post) error
	Post(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	Posts(ctx context.Context) ([]*models.Post, error)
	UserPosts(ctx context.Context, userID primitive.ObjectID) ([]*models.Post, error)

	// UpdatePostContent and DeletePost only act when ownerID owns the post,
	// returning ErrNotOwner otherwise and ErrNotFound for unknown ids.
	UpdatePostContent(ctx context.Context, id, ownerID primitive.ObjectID, content string) (*models.Post, error)
	DeletePost(ctx context.Context, id, ownerID primitive.ObjectID) (*models.Post, error)

	Close(ctx context.Context) error
}
