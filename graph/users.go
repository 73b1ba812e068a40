package graph

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"postql/auth"
	"postql/database"
	"postql/models"
)

const loginError = "Invalid username or password"

type userRegisterInput struct {
	Username  string
	Age       *int32
	FirstName *string
	LastName  *string
	Password  string
}

type userLoginInput struct {
	Username string
	Password string
}

func (r *Resolver) CreateUser(ctx context.Context, args struct{ Input userRegisterInput }) (*registrationResult, error) {
	in := args.Input

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return &registrationResult{err: err.Error()}, nil
	}

	user := &models.User{
		Username:     in.Username,
		PasswordHash: hash,
		Age:          in.Age,
		FirstName:    deref(in.FirstName),
		LastName:     deref(in.LastName),
	}
	if err := r.store.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, database.ErrDuplicateUsername) {
			r.log.Error("create user failed", zap.String("op", "createUser"), zap.Error(err))
		}
		return &registrationResult{err: err.Error()}, nil
	}

	r.log.Info("user registered", zap.String("userId", user.ID.Hex()), zap.String("username", user.Username))
	return &registrationResult{user: user}, nil
}

func (r *Resolver) LoginUser(ctx context.Context, args struct{ Input userLoginInput }) (*loginResult, error) {
	in := args.Input

	user, err := r.store.UserByUsername(ctx, in.Username)
	if errors.Is(err, database.ErrNotFound) {
		return &loginResult{err: loginError}, nil
	}
	if err != nil {
		r.log.Error("login lookup failed", zap.String("op", "loginUser"), zap.Error(err))
		return &loginResult{err: err.Error()}, nil
	}

	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		return &loginResult{err: loginError}, nil
	}

	token, err := r.tokens.Issue(user.ID)
	if err != nil {
		r.log.Error("issue token failed", zap.String("op", "loginUser"), zap.Error(err))
		return &loginResult{err: err.Error()}, nil
	}
	return &loginResult{token: token}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
