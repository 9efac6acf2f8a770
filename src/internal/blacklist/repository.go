package blacklist

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

type Entry struct {
	UserID  string    `bson:"user_id" json:"user_id"`
	Reason  string    `bson:"reason" json:"reason"`
	AddedAt time.Time `bson:"added_at" json:"added_at"`
}

type Repository interface {
	IsBlacklisted(ctx context.Context, userID string) (bool, error)
	Add(ctx context.Context, userID, reason string) error
	Remove(ctx context.Context, userID string) error
	All(ctx context.Context) ([]Entry, error)
}

type repository struct {
	collection *mongo.Collection
}

func NewRepository(db *clients.MongoDB, collectionName string) Repository {
	return &repository{collection: db.Database.Collection(collectionName)}
}

func (r *repository) IsBlacklisted(ctx context.Context, userID string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to check blacklist")
		return false, models.ErrDatabaseQuery
	}
	return true, nil
}

func (r *repository) Add(ctx context.Context, userID, reason string) error {
	if reason == "" {
		reason = "No reason provided"
	}

	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"user_id":  userID,
			"reason":   reason,
			"added_at": time.Now(),
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to add blacklist entry")
		return models.ErrDatabaseUpdate
	}
	return nil
}

func (r *repository) Remove(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to remove blacklist entry")
		return models.ErrDatabaseDelete
	}
	return nil
}

func (r *repository) All(ctx context.Context) ([]Entry, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		logrus.WithError(err).Error("Failed to load blacklist")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	var entries []Entry
	for cursor.Next(ctx) {
		var entry Entry
		if err := cursor.Decode(&entry); err != nil {
			logrus.WithError(err).Error("Failed to decode blacklist entry")
			continue
		}
		entries = append(entries, entry)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return entries, nil
}
