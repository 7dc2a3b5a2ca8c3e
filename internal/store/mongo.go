package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"accounts/internal/models"
)

const UsersCollection = "users"

// MongoStore keeps users in the "users" collection. Uniqueness relies on the
// indexes created by database.EnsureUserIndexes.
type MongoStore struct {
	db    *mongo.Database
	users *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db, users: db.Collection(UsersCollection)}
}

func (s *MongoStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	or := make([]bson.M, 0, 2)
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, ErrNotFound
	}

	return s.findOne(ctx, bson.M{"$or": or})
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	created := *user
	if created.ID.IsZero() {
		created.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.RefreshToken = ""

	if _, err := s.users.InsertOne(ctx, created); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &created, nil
}

func (s *MongoStore) UpdateRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	update := bson.M{
		"$set": bson.M{"refreshToken": token, "updatedAt": time.Now().UTC()},
	}
	if token == "" {
		update = bson.M{
			"$unset": bson.M{"refreshToken": ""},
			"$set":   bson.M{"updatedAt": time.Now().UTC()},
		}
	}
	return s.updateOne(ctx, id, update)
}

func (s *MongoStore) UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.updateOne(ctx, id, bson.M{
		"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()},
	})
}

func (s *MongoStore) UpdateAccount(ctx context.Context, id primitive.ObjectID, fullName, email string) (*models.User, error) {
	return s.findOneAndSet(ctx, id, bson.M{"fullName": fullName, "email": email})
}

func (s *MongoStore) UpdateImage(ctx context.Context, id primitive.ObjectID, field ImageField, url string) (*models.User, error) {
	if !field.Valid() {
		return nil, errInvalidField(field)
	}
	return s.findOneAndSet(ctx, id, bson.M{string(field): url})
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) findOneAndSet(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	fields["updatedAt"] = time.Now().UTC()

	var user models.User
	err := s.users.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &user, nil
}
