package clients

import (
	"context"
	"time"

	"ninja-presence-svc/src/internal/config"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var log = *logrus.StandardLogger()

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
	cfg      *config.Database
}

func NewMongoDB(cfg *config.Database) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Timeout)*time.Second)
	defer cancel()

	log.WithField("url", cfg.Url).Info("Connecting to MongoDB...")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Url))
	if err != nil {
		log.WithError(err).Error("Failed to connect to MongoDB")
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.WithError(err).Error("Failed to ping MongoDB")
		return nil, err
	}

	db := client.Database(cfg.DbName)
	mongodb := &MongoDB{
		Client:   client,
		Database: db,
		cfg:      cfg,
	}

	if err := mongodb.ensureIndexes(ctx); err != nil {
		log.WithError(err).Error("Failed to create indexes")
		return nil, err
	}

	log.Infof("Connected to MongoDB at %s", cfg.Url)
	return mongodb, nil
}

// ensureIndexes creates the unique per-user indexes the key-value
// collections rely on for upsert semantics.
func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true).SetSparse(true)
	userIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: unique,
	}

	for _, name := range []string{
		m.cfg.AfkActiveCollection,
		m.cfg.AfkTotalsCollection,
		m.cfg.BlacklistCollection,
	} {
		if _, err := m.Database.Collection(name).Indexes().CreateOne(ctx, userIDIndex); err != nil {
			return err
		}
	}

	keyIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	}
	_, err := m.Database.Collection(m.cfg.MsgCollection).Indexes().CreateOne(ctx, keyIndex)
	return err
}

func (m *MongoDB) Close(ctx context.Context) error {
	if err := m.Client.Disconnect(ctx); err != nil {
		log.WithError(err).Error("Failed to close MongoDB connection")
		return err
	}
	log.Info("MongoDB connection closed")
	return nil
}
