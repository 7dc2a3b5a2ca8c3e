package profile

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"accounts/internal/apperr"
	"accounts/internal/media"
	"accounts/internal/models"
	"accounts/internal/session"
	"accounts/internal/store"
)

// Service reads and edits the signed-in user's profile.
type Service struct {
	store  store.CredentialStore
	images session.ImageStore
	log    *zap.Logger
}

func NewService(s store.CredentialStore, images session.ImageStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, images: images, log: log}
}

func (s *Service) Current(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError("profile.Current", err)
	}
	return u.Sanitized(), nil
}

func (s *Service) UpdateAccount(ctx context.Context, userID primitive.ObjectID, fullName, email string) (*models.User, error) {
	const op = "profile.UpdateAccount"

	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))

	var missing []string
	if fullName == "" {
		missing = append(missing, "fullName is required")
	}
	if email == "" {
		missing = append(missing, "email is required")
	}
	if len(missing) > 0 {
		return nil, apperr.NewValidation(op, "All fields are required", missing...)
	}

	u, err := s.store.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		return nil, storeError(op, err)
	}
	return u.Sanitized(), nil
}

func (s *Service) UpdateAvatar(ctx context.Context, userID primitive.ObjectID, f *media.File) (*models.User, error) {
	return s.replaceImage(ctx, "profile.UpdateAvatar", userID, store.AvatarField, session.AvatarFolder, f)
}

func (s *Service) UpdateCoverImage(ctx context.Context, userID primitive.ObjectID, f *media.File) (*models.User, error) {
	return s.replaceImage(ctx, "profile.UpdateCoverImage", userID, store.CoverImageField, session.CoverFolder, f)
}

// replaceImage uploads f, points field at it and then removes the previous
// image. Removal failures are logged only.
func (s *Service) replaceImage(ctx context.Context, op string, userID primitive.ObjectID, field store.ImageField, folder string, f *media.File) (*models.User, error) {
	if f == nil {
		return nil, apperr.NewValidation(op, string(field)+" file is missing", string(field)+" is required")
	}

	current, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(op, err)
	}
	previous := current.Avatar
	if field == store.CoverImageField {
		previous = current.CoverImage
	}

	asset, err := s.images.Put(ctx, folder, *f)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateImage(ctx, userID, field, asset.URL)
	if err != nil {
		_ = s.images.Delete(ctx, asset.URL)
		return nil, storeError(op, err)
	}

	if previous != "" && previous != asset.URL {
		if err := s.images.Delete(ctx, previous); err != nil {
			s.log.Warn("previous image not removed", zap.String("userId", userID.Hex()), zap.String("url", previous), zap.Error(err))
		}
	}
	return updated.Sanitized(), nil
}

func storeError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NewNotFound(op, "User does not exist")
	case errors.Is(err, store.ErrDuplicate):
		return apperr.NewConflict(op, "Email is already in use").WithCause(err)
	}
	return apperr.Wrap(op, err)
}
