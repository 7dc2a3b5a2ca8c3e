package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"accounts/internal/models"
)

// runContract exercises the behaviour every CredentialStore must share.
func runContract(t *testing.T, newStore func(t *testing.T) CredentialStore) {
	ctx := context.Background()

	seed := func(t *testing.T, s CredentialStore, username, email string) *models.User {
		t.Helper()
		u, err := s.Create(ctx, &models.User{
			Username: username,
			Email:    email,
			FullName: "Test " + username,
			Avatar:   "/public/avatars/" + username + ".png",
			Password: "hash-" + username,
		})
		require.NoError(t, err)
		return u
	}

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		s := newStore(t)
		u := seed(t, s, "ada", "ada@example.com")

		assert.False(t, u.ID.IsZero())
		assert.False(t, u.CreatedAt.IsZero())
		assert.Empty(t, u.RefreshToken)
	})

	t.Run("duplicate email or username", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "ada", "ada@example.com")

		_, err := s.Create(ctx, &models.User{Username: "grace", Email: "ada@example.com"})
		assert.ErrorIs(t, err, ErrDuplicate)
		_, err = s.Create(ctx, &models.User{Username: "ada", Email: "other@example.com"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("find by username or email", func(t *testing.T) {
		s := newStore(t)
		u := seed(t, s, "ada", "ada@example.com")

		byName, err := s.FindByUsernameOrEmail(ctx, "ada", "")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byName.ID)

		byEmail, err := s.FindByUsernameOrEmail(ctx, "", "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)

		_, err = s.FindByUsernameOrEmail(ctx, "", "")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.FindByUsernameOrEmail(ctx, "nobody", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("find by id", func(t *testing.T) {
		s := newStore(t)
		u := seed(t, s, "ada", "ada@example.com")

		got, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash-ada", got.Password)

		_, err = s.FindByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("refresh token set and cleared", func(t *testing.T) {
		s := newStore(t)
		u := seed(t, s, "ada", "ada@example.com")

		require.NoError(t, s.UpdateRefreshToken(ctx, u.ID, "rt-1"))
		got, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "rt-1", got.RefreshToken)

		require.NoError(t, s.UpdateRefreshToken(ctx, u.ID, ""))
		require.NoError(t, s.UpdateRefreshToken(ctx, u.ID, ""))
		got, err = s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, got.RefreshToken)

		assert.ErrorIs(t, s.UpdateRefreshToken(ctx, primitive.NewObjectID(), "x"), ErrNotFound)
	})

	t.Run("password hash", func(t *testing.T) {
		s := newStore(t)
		u := seed(t, s, "ada", "ada@example.com")
		require.NoError(t, s.UpdateRefreshToken(ctx, u.ID, "rt-1"))

		require.NoError(t, s.UpdatePasswordHash(ctx, u.ID, "new-hash"))
		got, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", got.Password)
		assert.Equal(t, "rt-1", got.RefreshToken)
	})

	t.Run("update account", func(t *testing.T) {
		s := newStore(t)
		u := seed(t, s, "ada", "ada@example.com")
		seed(t, s, "grace", "grace@example.com")

		got, err := s.UpdateAccount(ctx, u.ID, "Ada King", "countess@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Ada King", got.FullName)
		assert.Equal(t, "countess@example.com", got.Email)

		_, err = s.UpdateAccount(ctx, u.ID, "Ada", "grace@example.com")
		assert.ErrorIs(t, err, ErrDuplicate)

		_, err = s.UpdateAccount(ctx, primitive.NewObjectID(), "x", "x@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update image", func(t *testing.T) {
		s := newStore(t)
		u := seed(t, s, "ada", "ada@example.com")

		got, err := s.UpdateImage(ctx, u.ID, CoverImageField, "/public/covers/c.png")
		require.NoError(t, err)
		assert.Equal(t, "/public/covers/c.png", got.CoverImage)
		assert.Equal(t, u.Avatar, got.Avatar)

		got, err = s.UpdateImage(ctx, u.ID, AvatarField, "/public/avatars/new.png")
		require.NoError(t, err)
		assert.Equal(t, "/public/avatars/new.png", got.Avatar)

		_, err = s.UpdateImage(ctx, u.ID, ImageField("banner"), "x")
		assert.Error(t, err)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(ctx))
	})
}
