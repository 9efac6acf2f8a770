package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ninja-presence-svc/src/clients"
	"ninja-presence-svc/src/internal/config"
	"ninja-presence-svc/src/internal/dependency"
	"ninja-presence-svc/src/internal/logger"
	"ninja-presence-svc/src/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = *logrus.StandardLogger()

func main() {
	cfg := config.Load()
	logger.Init(cfg)

	log.Infof("Application %s is starting....", cfg.App.Name)

	mongodb, err := clients.NewMongoDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}

	redisClient, err := clients.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}

	rabbitMQ, err := clients.NewRabbitMQ(&cfg.Queue)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}

	if err := rabbitMQ.SetupQueue(); err != nil {
		log.WithError(err).Fatal("Failed to set up queues")
	}

	deps := dependency.NewDependencyManager(gin.New(), mongodb, redisClient, rabbitMQ, cfg)

	warmCtx, cancelWarm := context.WithTimeout(context.Background(), time.Duration(cfg.App.Timeout)*time.Second)
	if err := deps.Tracker.WarmUp(warmCtx); err != nil {
		// The cache falls back to the store on misses, so an empty cache
		// is degraded but correct.
		log.WithError(err).Warn("Failed to warm session cache")
	}
	cancelWarm()

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	if err := deps.Consumer.Start(consumerCtx); err != nil {
		stopConsumer()
		log.WithError(err).Fatal("Failed to start message consumer")
	}

	srv := server.New(deps)
	go func() {
		if err := srv.Start(); err != nil {
			log.WithError(err).Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	stopConsumer()
	select {
	case <-deps.Consumer.Done():
	case <-time.After(5 * time.Second):
		log.Warn("Consumer did not drain in time")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := deps.WriteBuffer.Flush(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to flush pending counters on shutdown")
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	if err := rabbitMQ.Close(); err != nil {
		log.WithError(err).Error("Failed to close RabbitMQ")
	}
	if err := redisClient.Close(); err != nil {
		log.WithError(err).Error("Failed to close Redis")
	}
	if err := mongodb.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to close MongoDB")
	}

	log.Info("Shutdown complete")
}
