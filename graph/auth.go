package graph

import (
	"context"

	"postql/models"
)

const (
	authenticationError = "Authentication error"
	authorizationError  = "Authorization error"
)

// bearer is implemented by the argument bundles of authenticated operations.
type bearer interface {
	bearer() string
}

// withAuth wraps fn so it only runs for a token that resolves to a user. On
// failure deny builds the result and fn is never called.
func withAuth[A bearer, R any](
	tokens TokenService,
	op string,
	deny func(msg string) R,
	fn func(ctx context.Context, args A, user *models.User) (R, error),
) func(context.Context, A) (R, error) {
	return func(ctx context.Context, args A) (R, error) {
		user := tokens.Verify(ctx, args.bearer())
		if user == nil {
			authFailures.WithLabelValues(op).Inc()
			return deny(authenticationError), nil
		}
		return fn(ctx, args, user)
	}
}

type getPostArgs struct {
	ID    string
	Token string
}

type getPostsArgs struct {
	Token string
}

type getUserPostsArgs struct {
	UserID string
	Token  string
}

type createPostArgs struct {
	Content string
	Token   string
}

type deletePostArgs struct {
	ID    *string
	Token string
}

type updatePostArgs struct {
	ID      string
	Token   string
	Content string
}

func (a getPostArgs) bearer() string      { return a.Token }
func (a getPostsArgs) bearer() string     { return a.Token }
func (a getUserPostsArgs) bearer() string { return a.Token }
func (a createPostArgs) bearer() string   { return a.Token }
func (a deletePostArgs) bearer() string   { return a.Token }
func (a updatePostArgs) bearer() string   { return a.Token }
