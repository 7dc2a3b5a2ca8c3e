package profile

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"accounts/internal/apperr"
	"accounts/internal/media"
	"accounts/internal/models"
	"accounts/internal/store"
)

type fakeImages struct {
	n         int
	deleted   []string
	putErr    error
	deleteErr error
}

func (f *fakeImages) Put(_ context.Context, folder string, file media.File) (media.Asset, error) {
	if f.putErr != nil {
		return media.Asset{}, f.putErr
	}
	if err := media.Validate(file); err != nil {
		return media.Asset{}, err
	}
	f.n++
	key := folder + "/" + string(rune('a'+f.n)) + ".png"
	return media.Asset{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return f.deleteErr
}

func png() *media.File {
	body := []byte("png")
	return &media.File{Name: "x.png", Size: int64(len(body)), Body: bytes.NewReader(body)}
}

func seed(t *testing.T) (*store.MemoryStore, *models.User) {
	t.Helper()
	s := store.NewMemoryStore()
	u, err := s.Create(context.Background(), &models.User{
		Username:   "ada",
		Email:      "ada@example.com",
		FullName:   "Ada",
		Avatar:     "https://cdn.test/avatars/old.png",
		CoverImage: "",
		Password:   "hash",
	})
	require.NoError(t, err)
	return s, u
}

func TestCurrent(t *testing.T) {
	s, u := seed(t)
	svc := NewService(s, &fakeImages{}, nil)

	got, err := svc.Current(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)
	assert.Empty(t, got.Password)

	_, err = svc.Current(context.Background(), primitive.NewObjectID())
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestUpdateAccount(t *testing.T) {
	s, u := seed(t)
	_, err := s.Create(context.Background(), &models.User{Username: "grace", Email: "grace@example.com"})
	require.NoError(t, err)
	svc := NewService(s, &fakeImages{}, nil)
	ctx := context.Background()

	got, err := svc.UpdateAccount(ctx, u.ID, " Ada King ", " Countess@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Ada King", got.FullName)
	assert.Equal(t, "countess@example.com", got.Email)

	_, err = svc.UpdateAccount(ctx, u.ID, "", "x@example.com")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.UpdateAccount(ctx, u.ID, "Ada", "grace@example.com")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestUpdateAvatar_ReplacesAndDeletesPrevious(t *testing.T) {
	s, u := seed(t)
	images := &fakeImages{}
	svc := NewService(s, images, nil)

	got, err := svc.UpdateAvatar(context.Background(), u.ID, png())
	require.NoError(t, err)
	assert.NotEqual(t, u.Avatar, got.Avatar)
	assert.Equal(t, []string{u.Avatar}, images.deleted)
}

func TestUpdateCoverImage_NoPreviousNothingDeleted(t *testing.T) {
	s, u := seed(t)
	images := &fakeImages{}
	svc := NewService(s, images, nil)

	got, err := svc.UpdateCoverImage(context.Background(), u.ID, png())
	require.NoError(t, err)
	assert.NotEmpty(t, got.CoverImage)
	assert.Equal(t, u.Avatar, got.Avatar)
	assert.Empty(t, images.deleted)
}

func TestUpdateAvatar_DeleteFailureIsNotFatal(t *testing.T) {
	s, u := seed(t)
	images := &fakeImages{deleteErr: errors.New("host down")}
	svc := NewService(s, images, nil)

	_, err := svc.UpdateAvatar(context.Background(), u.ID, png())
	assert.NoError(t, err)
}

func TestUpdateAvatar_Errors(t *testing.T) {
	s, u := seed(t)
	svc := NewService(s, &fakeImages{}, nil)
	ctx := context.Background()

	_, err := svc.UpdateAvatar(ctx, u.ID, nil)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.UpdateAvatar(ctx, primitive.NewObjectID(), png())
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	failing := NewService(s, &fakeImages{putErr: apperr.Wrap("media.Put", errors.New("down"))}, nil)
	_, err = failing.UpdateAvatar(ctx, u.ID, png())
	assert.Equal(t, apperr.Unexpected, apperr.KindOf(err))
}
