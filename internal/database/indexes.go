package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func EnsureUserIndexes(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetName("username_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("email_unique").
				SetUnique(true),
		},
	}

	log.Debug("EnsureUserIndexes: creating username_unique and email_unique indexes")
	names, err := indexes.CreateMany(ctx, models)
	if err != nil {
		log.Error("EnsureUserIndexes: index error", zap.Error(err))
		return err
	}
	log.Info("EnsureUserIndexes: indexes ready", zap.Strings("indexes", names))
	return nil
}
