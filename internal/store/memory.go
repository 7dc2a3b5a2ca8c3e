package store

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"accounts/internal/models"
)

// MemoryStore keeps users in process memory. It enforces the same uniqueness
// rules as the Mongo indexes.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[primitive.ObjectID]models.User),
		now:   time.Now,
	}
}

func (s *MemoryStore) FindByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	if username == "" && email == "" {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.taken(primitive.NilObjectID, user.Username, user.Email) {
		return nil, ErrDuplicate
	}

	created := *user
	if created.ID.IsZero() {
		created.ID = primitive.NewObjectID()
	}
	now := s.now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	s.users[created.ID] = created
	return &created, nil
}

func (s *MemoryStore) UpdateRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	return s.update(id, func(u *models.User) error {
		u.RefreshToken = token
		return nil
	})
}

func (s *MemoryStore) UpdatePasswordHash(_ context.Context, id primitive.ObjectID, hash string) error {
	return s.update(id, func(u *models.User) error {
		u.Password = hash
		return nil
	})
}

func (s *MemoryStore) UpdateAccount(_ context.Context, id primitive.ObjectID, fullName, email string) (*models.User, error) {
	var out models.User
	err := s.update(id, func(u *models.User) error {
		if s.taken(id, "", email) {
			return ErrDuplicate
		}
		u.FullName = fullName
		u.Email = email
		out = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemoryStore) UpdateImage(_ context.Context, id primitive.ObjectID, field ImageField, url string) (*models.User, error) {
	var out models.User
	err := s.update(id, func(u *models.User) error {
		switch field {
		case AvatarField:
			u.Avatar = url
		case CoverImageField:
			u.CoverImage = url
		default:
			return errInvalidField(field)
		}
		out = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// update applies fn under the write lock and bumps updatedAt.
func (s *MemoryStore) update(id primitive.ObjectID, fn func(u *models.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.UpdatedAt = s.now().UTC()
	if err := fn(&u); err != nil {
		return err
	}
	s.users[id] = u
	return nil
}

// taken must be called with the lock held.
func (s *MemoryStore) taken(except primitive.ObjectID, username, email string) bool {
	for id, u := range s.users {
		if id == except {
			continue
		}
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return true
		}
	}
	return false
}
