package afk

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

// Repository is the durable session store: two key-value collections keyed
// by user id, one for active sessions and one for accumulated totals.
type Repository interface {
	GetActiveSession(ctx context.Context, userID string) (*ActiveSession, error)
	PutActiveSession(ctx context.Context, session *ActiveSession) error
	DeleteActiveSession(ctx context.Context, userID string) error
	GetAllActiveSessions(ctx context.Context) (map[string]*ActiveSession, error)
	GetAccumulatedTotal(ctx context.Context, userID string) (int64, error)
	PutAccumulatedTotal(ctx context.Context, userID string, totalMs int64) error
	ResetAccumulatedTotal(ctx context.Context, userID string) error
}

type repository struct {
	active *mongo.Collection
	totals *mongo.Collection
}

func NewRepository(db *clients.MongoDB, activeCollection, totalsCollection string) Repository {
	return &repository{
		active: db.Database.Collection(activeCollection),
		totals: db.Database.Collection(totalsCollection),
	}
}

func (r *repository) GetActiveSession(ctx context.Context, userID string) (*ActiveSession, error) {
	var session ActiveSession
	filter := bson.M{"user_id": userID}

	err := r.active.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to get active session")
		return nil, models.ErrDatabaseQuery
	}

	return &session, nil
}

func (r *repository) PutActiveSession(ctx context.Context, session *ActiveSession) error {
	filter := bson.M{"user_id": session.UserID}
	update := bson.M{
		"$set": bson.M{
			"user_id":    session.UserID,
			"since":      session.Since,
			"reason":     session.Reason,
			"updated_at": time.Now(),
		},
	}

	_, err := r.active.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		logrus.WithError(err).WithField("user_id", session.UserID).Error("Failed to put active session")
		return models.ErrDatabaseUpdate
	}

	return nil
}

func (r *repository) DeleteActiveSession(ctx context.Context, userID string) error {
	_, err := r.active.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to delete active session")
		return models.ErrDatabaseDelete
	}
	return nil
}

func (r *repository) GetAllActiveSessions(ctx context.Context) (map[string]*ActiveSession, error) {
	cursor, err := r.active.Find(ctx, bson.M{})
	if err != nil {
		logrus.WithError(err).Error("Failed to load active sessions")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	sessions := make(map[string]*ActiveSession)
	for cursor.Next(ctx) {
		var session ActiveSession
		if err := cursor.Decode(&session); err != nil {
			logrus.WithError(err).Error("Failed to decode active session")
			continue
		}
		sessions[session.UserID] = &session
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return sessions, nil
}

func (r *repository) GetAccumulatedTotal(ctx context.Context, userID string) (int64, error) {
	var total AwayTotal
	filter := bson.M{"user_id": userID}

	err := r.totals.FindOne(ctx, filter).Decode(&total)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to get accumulated total")
		return 0, models.ErrDatabaseQuery
	}

	return total.TotalMs, nil
}

func (r *repository) PutAccumulatedTotal(ctx context.Context, userID string, totalMs int64) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"user_id":    userID,
			"total_ms":   totalMs,
			"updated_at": time.Now(),
		},
	}

	_, err := r.totals.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to put accumulated total")
		return models.ErrDatabaseUpdate
	}

	return nil
}

func (r *repository) ResetAccumulatedTotal(ctx context.Context, userID string) error {
	_, err := r.totals.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to reset accumulated total")
		return models.ErrDatabaseDelete
	}
	return nil
}
