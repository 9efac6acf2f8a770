package stats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ninja-presence-svc/src/internal/config"
	"ninja-presence-svc/src/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache holds a short-lived snapshot of the sorted leaderboard so repeated
// reads do not rescan the counts collection.
type Cache interface {
	GetLeaderboard(ctx context.Context) ([]Entry, error)
	SaveLeaderboard(ctx context.Context, entries []Entry) error
}

type redisCache struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCache(client *redis.Client, cfg *config.Configuration) Cache {
	return &redisCache{
		client: client,
		cfg:    &cfg.Cache,
	}
}

func (c *redisCache) GetLeaderboard(ctx context.Context) ([]Entry, error) {
	data, err := c.client.Get(ctx, c.cfg.LeaderboardKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.Debug("Leaderboard not found in cache")
			return nil, nil
		}
		logrus.WithError(err).Error("Failed to get leaderboard from cache")
		return nil, models.ErrRedisGet
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal leaderboard from cache")
		return nil, models.ErrRedisGet
	}

	logrus.Debug("Leaderboard retrieved from cache successfully")
	return entries, nil
}

func (c *redisCache) SaveLeaderboard(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal leaderboard for cache")
		return models.ErrRedisSet
	}

	expiration := time.Duration(c.cfg.LeaderboardExpirationMinutes) * time.Minute
	if err := c.client.Set(ctx, c.cfg.LeaderboardKey, data, expiration).Err(); err != nil {
		logrus.WithError(err).Error("Failed to cache leaderboard")
		return models.ErrRedisSet
	}
	return nil
}
