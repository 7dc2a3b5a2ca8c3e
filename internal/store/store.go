// Package store persists user credentials and the single active refresh
// token per user.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"accounts/internal/models"
)

var (
	ErrNotFound  = errors.New("store: user not found")
	ErrDuplicate = errors.New("store: username or email already taken")
)

// ImageField names a user image slot.
type ImageField string

const (
	AvatarField     ImageField = "avatar"
	CoverImageField ImageField = "coverImage"
)

func (f ImageField) Valid() bool {
	return f == AvatarField || f == CoverImageField
}

// CredentialStore is the persistence boundary used by the session and profile
// services. Every returned user is a copy owned by the caller.
type CredentialStore interface {
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// UpdateRefreshToken stores token as the user's only refresh token. An
	// empty token removes it.
	UpdateRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateAccount(ctx context.Context, id primitive.ObjectID, fullName, email string) (*models.User, error)
	UpdateImage(ctx context.Context, id primitive.ObjectID, field ImageField, url string) (*models.User, error)
	Ping(ctx context.Context) error
}

func errInvalidField(field ImageField) error {
	return fmt.Errorf("store: unknown image field %q", field)
}
