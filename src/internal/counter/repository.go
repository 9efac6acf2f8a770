package counter

import (
	"context"
	"errors"
	"time"

	"ninja-presence-svc/src/clients"
	"ninja-presence-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists per-key message counts.
type Repository interface {
	IncrementBy(ctx context.Context, key string, delta int64) error
	Get(ctx context.Context, key string) (int64, error)
	All(ctx context.Context) (map[string]int64, error)
}

type countDocument struct {
	Key   string `bson:"key"`
	Count int64  `bson:"count"`
}

type repository struct {
	collection *mongo.Collection
}

func NewRepository(db *clients.MongoDB, collectionName string) Repository {
	return &repository{collection: db.Database.Collection(collectionName)}
}

func (r *repository) IncrementBy(ctx context.Context, key string, delta int64) error {
	filter := bson.M{"key": key}
	update := bson.M{
		"$inc":         bson.M{"count": delta},
		"$set":         bson.M{"updated_at": time.Now()},
		"$setOnInsert": bson.M{"key": key},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"key":   key,
			"delta": delta,
		}).Error("Failed to increment message count")
		return models.ErrDatabaseUpdate
	}
	return nil
}

func (r *repository) Get(ctx context.Context, key string) (int64, error) {
	var doc countDocument
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		logrus.WithError(err).WithField("key", key).Error("Failed to get message count")
		return 0, models.ErrDatabaseQuery
	}
	return doc.Count, nil
}

func (r *repository) All(ctx context.Context) (map[string]int64, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		logrus.WithError(err).Error("Failed to load message counts")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var doc countDocument
		if err := cursor.Decode(&doc); err != nil {
			logrus.WithError(err).Error("Failed to decode message count")
			continue
		}
		counts[doc.Key] = doc.Count
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return counts, nil
}
