package graph

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"postql/database"
	"postql/models"
)

var (
	errPostNotFound = errors.New("post not found")
	errMissingID    = errors.New("post id is required")
	errInternal     = errors.New("internal server error")
)

func parseID(kind, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, errors.Errorf("invalid %s id %q", kind, hex)
	}
	return id, nil
}

// storeError maps a store failure to the error the client sees. Unexpected
// failures are logged and hidden behind errInternal.
func (r *Resolver) storeError(op string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return errPostNotFound
	}
	r.log.Error("store call failed", zap.String("op", op), zap.Error(err))
	return errInternal
}

func (r *Resolver) getPost(ctx context.Context, args getPostArgs, _ *models.User) (*postResolver, error) {
	id, err := parseID("post", args.ID)
	if err != nil {
		return nil, err
	}
	post, err := r.store.Post(ctx, id)
	if err != nil {
		return nil, r.storeError("getPost", err)
	}
	return &postResolver{p: post}, nil
}

func (r *Resolver) getPosts(ctx context.Context, _ getPostsArgs, _ *models.User) ([]*postResolver, error) {
	posts, err := r.store.Posts(ctx)
	if err != nil {
		return nil, r.storeError("getPosts", err)
	}
	return postList(posts), nil
}

func (r *Resolver) getUserPosts(ctx context.Context, args getUserPostsArgs, _ *models.User) ([]*postResolver, error) {
	userID, err := parseID("user", args.UserID)
	if err != nil {
		return nil, err
	}
	posts, err := r.store.UserPosts(ctx, userID)
	if err != nil {
		return nil, r.storeError("getUserPosts", err)
	}
	return postList(posts), nil
}

func (r *Resolver) createPost(ctx context.Context, args createPostArgs, user *models.User) (*postResolver, error) {
	post := &models.Post{UserID: user.ID, Content: args.Content}
	if err := r.store.CreatePost(ctx, post); err != nil {
		return nil, r.storeError("createPost", err)
	}
	post.User = user

	r.log.Debug("post created", zap.String("postId", post.ID.Hex()), zap.String("userId", user.ID.Hex()))
	return &postResolver{p: post}, nil
}

func (r *Resolver) deletePost(ctx context.Context, args deletePostArgs, user *models.User) (*postResolver, error) {
	if args.ID == nil {
		return nil, errMissingID
	}
	id, err := parseID("post", *args.ID)
	if err != nil {
		return nil, err
	}

	post, err := r.store.DeletePost(ctx, id, user.ID)
	if errors.Is(err, database.ErrNotOwner) {
		ownershipDenials.WithLabelValues("deletePost").Inc()
		return postError(authorizationError), nil
	}
	if err != nil {
		return nil, r.storeError("deletePost", err)
	}
	post.User = user

	r.log.Debug("post deleted", zap.String("postId", post.ID.Hex()), zap.String("userId", user.ID.Hex()))
	return &postResolver{p: post}, nil
}

func (r *Resolver) updatePost(ctx context.Context, args updatePostArgs, user *models.User) (*postResolver, error) {
	id, err := parseID("post", args.ID)
	if err != nil {
		return nil, err
	}

	post, err := r.store.UpdatePostContent(ctx, id, user.ID, args.Content)
	if errors.Is(err, database.ErrNotOwner) {
		ownershipDenials.WithLabelValues("updatePost").Inc()
		return postError(authorizationError), nil
	}
	if err != nil {
		return nil, r.storeError("updatePost", err)
	}
	post.User = user
	return &postResolver{p: post}, nil
}
