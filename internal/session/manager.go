// Package session implements registration, login, logout, token refresh and
// password change on top of the credential store and the token codec.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"accounts/internal/apperr"
	"accounts/internal/media"
	"accounts/internal/models"
	"accounts/internal/password"
	"accounts/internal/store"
	"accounts/internal/token"
)

const (
	AvatarFolder = "avatars"
	CoverFolder  = "covers"
)

// ImageStore uploads user images.
type ImageStore interface {
	Put(ctx context.Context, folder string, f media.File) (media.Asset, error)
	Delete(ctx context.Context, url string) error
}

// Recorder receives auth outcomes, e.g. for metrics.
type Recorder interface {
	AuthEvent(op, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}

type TokenPair struct {
	AccessToken  token.Issued
	RefreshToken token.Issued
}

type LoginResult struct {
	User   *models.User
	Tokens TokenPair
}

type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *media.File
	CoverImage *media.File
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

type Manager struct {
	store    store.CredentialStore
	codec    *token.Codec
	hasher   password.Hasher
	images   ImageStore
	log      *zap.Logger
	recorder Recorder
}

type Option func(*Manager)

func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

func NewManager(s store.CredentialStore, codec *token.Codec, hasher password.Hasher, images ImageStore, log *zap.Logger, opts ...Option) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		store:    s,
		codec:    codec,
		hasher:   hasher,
		images:   images,
		log:      log,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func normalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (m *Manager) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "session.Register"

	fullName := strings.TrimSpace(in.FullName)
	email := normalizeIdentity(in.Email)
	username := normalizeIdentity(in.Username)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullName", fullName},
		{"email", email},
		{"username", username},
		{"password", strings.TrimSpace(in.Password)},
	} {
		if f.value == "" {
			missing = append(missing, f.name+" is required")
		}
	}
	if len(missing) > 0 {
		return nil, apperr.NewValidation(op, "All fields are required", missing...)
	}

	_, err := m.store.FindByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		return nil, apperr.NewConflict(op, "User with email or username already exists")
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperr.Wrap(op, err)
	}

	if in.Avatar == nil {
		return nil, apperr.NewValidation(op, "Avatar file is required", "avatar is required")
	}

	avatar, err := m.images.Put(ctx, AvatarFolder, *in.Avatar)
	if err != nil {
		return nil, err
	}

	var coverURL string
	if in.CoverImage != nil {
		cover, err := m.images.Put(ctx, CoverFolder, *in.CoverImage)
		if err != nil {
			m.discard(ctx, avatar.URL)
			return nil, err
		}
		coverURL = cover.URL
	}

	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		m.discard(ctx, avatar.URL, coverURL)
		return nil, apperr.Wrap(op, err)
	}

	created, err := m.store.Create(ctx, &models.User{
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Avatar:     avatar.URL,
		CoverImage: coverURL,
		Password:   hash,
	})
	if err != nil {
		m.discard(ctx, avatar.URL, coverURL)
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.NewConflict(op, "User with email or username already exists").WithCause(err)
		}
		return nil, apperr.Wrap(op, err)
	}

	m.log.Info("user registered", zap.String("userId", created.ID.Hex()), zap.String("username", created.Username))
	return created.Sanitized(), nil
}

func (m *Manager) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	const op = "session.Login"

	username := normalizeIdentity(in.Username)
	email := normalizeIdentity(in.Email)
	if username == "" && email == "" {
		return nil, apperr.NewValidation(op, "username or email is required")
	}
	if strings.TrimSpace(in.Password) == "" {
		return nil, apperr.NewValidation(op, "password is required", "password is required")
	}

	user, err := m.store.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			m.log.Info("login failed", zap.String("reason", "unknown user"), zap.String("username", username), zap.String("email", email))
			m.recorder.AuthEvent("login", "not_found")
			return nil, apperr.NewNotFound(op, "User does not exist")
		}
		return nil, apperr.Wrap(op, err)
	}

	if err := m.hasher.Compare(user.Password, in.Password); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			return nil, apperr.Wrap(op, err)
		}
		m.log.Info("login failed", zap.String("reason", "bad credentials"), zap.String("userId", user.ID.Hex()))
		m.recorder.AuthEvent("login", "bad_credentials")
		return nil, apperr.NewAuth(op, "Invalid user credentials")
	}

	pair, err := m.issuePair(ctx, op, user)
	if err != nil {
		return nil, err
	}

	m.recorder.AuthEvent("login", "success")
	m.log.Info("user logged in", zap.String("userId", user.ID.Hex()))
	return &LoginResult{User: user.Sanitized(), Tokens: *pair}, nil
}

// Logout clears the stored refresh token. Repeating it is harmless.
func (m *Manager) Logout(ctx context.Context, userID primitive.ObjectID) error {
	const op = "session.Logout"

	if err := m.store.UpdateRefreshToken(ctx, userID, ""); err != nil && !errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(op, err)
	}
	m.recorder.AuthEvent("logout", "success")
	m.log.Info("user logged out", zap.String("userId", userID.Hex()))
	return nil
}

// Refresh exchanges the current refresh token for a new pair. The presented
// token must equal the one stored for its subject; anything older is
// treated as reuse.
func (m *Manager) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	const op = "session.Refresh"

	presented = strings.TrimSpace(presented)
	if presented == "" {
		m.recorder.AuthEvent("refresh", "missing")
		return nil, apperr.NewAuth(op, "unauthorized request")
	}

	claims, err := m.codec.Verify(presented, token.Refresh)
	if err != nil {
		m.recorder.AuthEvent("refresh", "invalid")
		return nil, apperr.NewAuth(op, "Invalid refresh token").WithCause(err)
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID())
	if err != nil {
		m.recorder.AuthEvent("refresh", "invalid")
		return nil, apperr.NewAuth(op, "Invalid refresh token").WithCause(err)
	}

	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			m.recorder.AuthEvent("refresh", "not_found")
			return nil, apperr.NewNotFound(op, "Invalid refresh token")
		}
		return nil, apperr.Wrap(op, err)
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshToken)) != 1 {
		m.log.Warn("refresh token reuse or revoked token presented", zap.String("userId", user.ID.Hex()))
		m.recorder.AuthEvent("refresh", "reused")
		return nil, apperr.NewAuth(op, "Refresh token is expired or used")
	}

	pair, err := m.issuePair(ctx, op, user)
	if err != nil {
		return nil, err
	}
	m.recorder.AuthEvent("refresh", "success")
	return pair, nil
}

// ChangePassword replaces the password hash. The current refresh token stays
// valid.
func (m *Manager) ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error {
	const op = "session.ChangePassword"

	if strings.TrimSpace(newPassword) == "" {
		return apperr.NewValidation(op, "new password is required", "newPassword is required")
	}

	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NewNotFound(op, "User does not exist")
		}
		return apperr.Wrap(op, err)
	}

	if err := m.hasher.Compare(user.Password, oldPassword); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			return apperr.Wrap(op, err)
		}
		m.recorder.AuthEvent("change_password", "bad_credentials")
		return apperr.NewAuth(op, "Invalid old password")
	}

	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Wrap(op, err)
	}
	if err := m.store.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NewNotFound(op, "User does not exist")
		}
		return apperr.Wrap(op, err)
	}

	m.recorder.AuthEvent("change_password", "success")
	m.log.Info("password changed", zap.String("userId", userID.Hex()))
	return nil
}

// Authenticate resolves an access token to its (sanitized) user.
func (m *Manager) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	const op = "session.Authenticate"

	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, apperr.NewAuth(op, "Unauthorized request")
	}

	claims, err := m.codec.Verify(accessToken, token.Access)
	if err != nil {
		return nil, apperr.NewAuth(op, "Invalid access token").WithCause(err)
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID())
	if err != nil {
		return nil, apperr.NewAuth(op, "Invalid access token").WithCause(err)
	}

	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NewAuth(op, "Invalid access token")
		}
		return nil, apperr.Wrap(op, err)
	}
	return user.Sanitized(), nil
}

// issuePair signs a new pair and persists the refresh token before returning.
func (m *Manager) issuePair(ctx context.Context, op string, user *models.User) (*TokenPair, error) {
	access, err := m.codec.IssueAccessToken(token.Subject{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	})
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	refresh, err := m.codec.IssueRefreshToken(user.ID.Hex())
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}

	if err := m.store.UpdateRefreshToken(ctx, user.ID, refresh.Token); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NewNotFound(op, "User does not exist")
		}
		return nil, apperr.Wrap(op, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// discard removes uploads orphaned by a failed registration.
func (m *Manager) discard(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := m.images.Delete(ctx, url); err != nil {
			m.log.Warn("failed to remove orphaned upload", zap.String("url", url), zap.Error(err))
		}
	}
}
