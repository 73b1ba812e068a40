// Package graph implements the GraphQL schema: the root resolver, the
// per-operation resolvers and the token check that guards post operations.
package graph

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"postql/database"
	"postql/models"
)

// TokenService issues tokens at login and resolves them back to users.
type TokenService interface {
	Issue(userID primitive.ObjectID) (string, error)
	Verify(ctx context.Context, token string) *models.User
}

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	store  database.Store
	tokens TokenService
	log    *zap.Logger

	authed authedOps
}

// authedOps holds the post operations already wrapped by withAuth.
type authedOps struct {
	getPost      func(context.Context, getPostArgs) (*postResolver, error)
	getPosts     func(context.Context, getPostsArgs) ([]*postResolver, error)
	getUserPosts func(context.Context, getUserPostsArgs) ([]*postResolver, error)
	createPost   func(context.Context, createPostArgs) (*postResolver, error)
	deletePost   func(context.Context, deletePostArgs) (*postResolver, error)
	updatePost   func(context.Context, updatePostArgs) (*postResolver, error)
}

func NewResolver(store database.Store, tokens TokenService, log *zap.Logger) *Resolver {
	r := &Resolver{store: store, tokens: tokens, log: log}
	r.authed = authedOps{
		getPost:      withAuth(tokens, "getPost", postError, r.getPost),
		getPosts:     withAuth(tokens, "getPosts", postListError, r.getPosts),
		getUserPosts: withAuth(tokens, "getUserPosts", postListError, r.getUserPosts),
		createPost:   withAuth(tokens, "createPost", postError, r.createPost),
		deletePost:   withAuth(tokens, "deletePost", postError, r.deletePost),
		updatePost:   withAuth(tokens, "updatePost", postError, r.updatePost),
	}
	return r
}

func (r *Resolver) Ping() *string {
	pong := "pong"
	return &pong
}

func (r *Resolver) GetPost(ctx context.Context, args getPostArgs) (*postResolver, error) {
	return r.authed.getPost(ctx, args)
}

func (r *Resolver) GetPosts(ctx context.Context, args getPostsArgs) ([]*postResolver, error) {
	return r.authed.getPosts(ctx, args)
}

func (r *Resolver) GetUserPosts(ctx context.Context, args getUserPostsArgs) ([]*postResolver, error) {
	return r.authed.getUserPosts(ctx, args)
}

func (r *Resolver) CreatePost(ctx context.Context, args createPostArgs) (*postResolver, error) {
	return r.authed.createPost(ctx, args)
}

func (r *Resolver) DeletePost(ctx context.Context, args deletePostArgs) (*postResolver, error) {
	return r.authed.deletePost(ctx, args)
}

func (r *Resolver) UpdatePost(ctx context.Context, args updatePostArgs) (*postResolver, error) {
	return r.authed.updatePost(ctx, args)
}
