package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"postql/database"
	"postql/models"
)

type fakeUsers map[primitive.ObjectID]*models.User

func (f fakeUsers) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return u, nil
}

func setupTokens(t *testing.T) (*Tokens, *models.User, *time.Time) {
	t.Helper()
	alice := &models.User{ID: primitive.NewObjectID(), Username: "alice"}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tokens := NewTokens("secret", time.Hour, fakeUsers{alice.ID: alice}, zap.NewNop()).
		WithClock(func() time.Time { return now })
	return tokens, alice, &now
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	tokens, alice, _ := setupTokens(t)

	token, err := tokens.Issue(alice.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID.Hex(), claims.UserID)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	got := tokens.Verify(context.Background(), token)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)
}

func TestVerifyRejects(t *testing.T) {
	tokens, alice, now := setupTokens(t)
	ctx := context.Background()

	valid, err := tokens.Issue(alice.ID)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, tokens.Verify(ctx, ""))
	})

	t.Run("garbage", func(t *testing.T) {
		assert.Nil(t, tokens.Verify(ctx, "not-a-jwt"))
	})

	t.Run("tampered", func(t *testing.T) {
		assert.Nil(t, tokens.Verify(ctx, valid+"x"))
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewTokens("other", time.Hour, fakeUsers{alice.ID: alice}, zap.NewNop())
		forged, err := other.Issue(alice.ID)
		require.NoError(t, err)
		assert.Nil(t, tokens.Verify(ctx, forged))
	})

	t.Run("expired", func(t *testing.T) {
		later := tokens.WithClock(func() time.Time { return now.Add(2 * time.Hour) })
		assert.Nil(t, later.Verify(ctx, valid))
	})

	t.Run("no expiry", func(t *testing.T) {
		forever := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: alice.ID.Hex()})
		signed, err := forever.SignedString([]byte("secret"))
		require.NoError(t, err)
		assert.Nil(t, tokens.Verify(ctx, signed))
	})

	t.Run("alg none", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			UserID: alice.ID.Hex(),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})
		signed, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		assert.Nil(t, tokens.Verify(ctx, signed))
	})

	t.Run("malformed user id", func(t *testing.T) {
		bad := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			UserID: "not-an-object-id",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})
		signed, err := bad.SignedString([]byte("secret"))
		require.NoError(t, err)
		assert.Nil(t, tokens.Verify(ctx, signed))
	})

	t.Run("deleted user", func(t *testing.T) {
		ghost, err := tokens.Issue(primitive.NewObjectID())
		require.NoError(t, err)
		assert.Nil(t, tokens.Verify(ctx, ghost))
	})
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", hash)

	assert.True(t, CheckPassword(hash, "pw1"))
	assert.False(t, CheckPassword(hash, "pw2"))
	assert.False(t, CheckPassword("pw1", "pw1"))
}
