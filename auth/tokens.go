// Package auth issues and verifies the bearer tokens passed to the GraphQL
// operations, and hashes user passwords.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"postql/models"
)

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// UserFinder loads the user a verified token points at.
type UserFinder interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Tokens signs HS256 tokens carrying a user id and an expiry. Verification is
// stateless: there is no revocation list.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	users  UserFinder
	now    func() time.Time
	log    *zap.Logger
}

func NewTokens(secret string, ttl time.Duration, users UserFinder, log *zap.Logger) *Tokens {
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
		users:  users,
		now:    time.Now,
		log:    log,
	}
}

// WithClock returns a copy of t that reads the time from now.
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	c := *t
	c.now = now
	return &c
}

// Issue signs a token for userID valid for the configured TTL.
func (t *Tokens) Issue(userID primitive.ObjectID) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return signed, nil
}

// Parse validates the signature and expiry of tokenString and returns its claims.
func (t *Tokens) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}

// Verify resolves tokenString to its user. Every failure, including a user
// that no longer exists, yields nil.
func (t *Tokens) Verify(ctx context.Context, tokenString string) *models.User {
	if tokenString == "" {
		return nil
	}
	claims, err := t.Parse(tokenString)
	if err != nil {
		t.log.Debug("token rejected", zap.Error(err))
		return nil
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		t.log.Debug("token carries malformed user id", zap.String("userId", claims.UserID))
		return nil
	}

	user, err := t.users.UserByID(ctx, userID)
	if err != nil {
		t.log.Debug("token user not loaded", zap.String("userId", claims.UserID), zap.Error(err))
		return nil
	}
	return user
}
