package dependency

import (
	"time"

	"ninja-presence-svc/src/clients"
	"ninja-presence-svc/src/internal/afk"
	"ninja-presence-svc/src/internal/blacklist"
	"ninja-presence-svc/src/internal/config"
	"ninja-presence-svc/src/internal/counter"
	"ninja-presence-svc/src/internal/events"
	"ninja-presence-svc/src/internal/gateway"
	"ninja-presence-svc/src/internal/stats"

	"github.com/gin-gonic/gin"
)

type Manager struct {
	Router        *gin.Engine
	Config        *config.Configuration
	Mongodb       *clients.MongoDB
	Redis         *clients.RedisClient
	RabbitMQ      *clients.RabbitMQ
	AfkRepository afk.Repository
	Tracker       afk.Tracker
	Blacklist     blacklist.Repository
	Counters      counter.Repository
	WriteBuffer   *counter.WriteBuffer
	StatsService  stats.Service
	Publisher     events.Publisher
	Consumer      *gateway.Consumer
	StartedAt     time.Time
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) *Manager {
	publisher := events.NewPublisher(rabbitMQ.Channel, cfg)

	afkRepo := afk.NewRepository(mongodb, cfg.Database.AfkActiveCollection, cfg.Database.AfkTotalsCollection)
	sessionCache := afk.NewSessionCache()
	tracker := afk.NewTracker(afkRepo, sessionCache, publisher, &cfg.Tracker)

	blacklistRepo := blacklist.NewRepository(mongodb, cfg.Database.BlacklistCollection)
	counterRepo := counter.NewRepository(mongodb, cfg.Database.MsgCollection)
	writeBuffer := counter.NewWriteBuffer(counterRepo, time.Duration(cfg.Counter.FlushDelayMs)*time.Millisecond)

	statsCache := stats.NewCache(redisClient.Client, cfg)
	statsService := stats.NewService(counterRepo, afkRepo, statsCache, cfg)

	handler := gateway.NewHandler(tracker, blacklistRepo, writeBuffer, publisher)
	consumer := gateway.NewConsumer(rabbitMQ, handler, cfg)

	return &Manager{
		Router:        router,
		Config:        cfg,
		Mongodb:       mongodb,
		Redis:         redisClient,
		RabbitMQ:      rabbitMQ,
		AfkRepository: afkRepo,
		Tracker:       tracker,
		Blacklist:     blacklistRepo,
		Counters:      counterRepo,
		WriteBuffer:   writeBuffer,
		StatsService:  statsService,
		Publisher:     publisher,
		Consumer:      consumer,
		StartedAt:     time.Now(),
	}
}
