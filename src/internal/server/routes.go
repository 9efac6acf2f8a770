package server

import (
	"strconv"
	"time"

	"ninja-presence-svc/src/clients"
	"ninja-presence-svc/src/internal/afk"
	"ninja-presence-svc/src/internal/dependency"
	"ninja-presence-svc/src/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)

	setupHealthEndpoint(deps)
	setupPublicRoutes(router, deps)
	setupAdminRoutes(router, deps)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	mongodb := deps.Mongodb
	redisClient := deps.Redis
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		mongoStatus := "ok"
		if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
			mongoStatus = "error: " + err.Error()
		}

		redisStatus := "ok"
		if err := redisClient.Client.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		}

		c.JSON(200, gin.H{
			"status":    "ok",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mongodb":   mongoStatus,
			"redis":     redisStatus,
			"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	})

	router.GET("/health/detailed", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "operational",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
			"components": gin.H{
				"database": gin.H{
					"mongodb": getStatus(isMongoConnected(mongodb, c)),
					"redis":   getStatus(isRedisConnected(redisClient.Client, c)),
				},
				"services": gin.H{
					"tracker": "operational",
					"gateway": "operational",
					"stats":   "operational",
				},
			},
		})
	})
}

func setupPublicRoutes(router *gin.Engine, deps *dependency.Manager) {
	router.GET("/api/v1/status", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"api_version": "v1",
			"status":      "operational",
			"service":     deps.Config.App.Name,
			"uptime":      afk.FormatDuration(time.Since(deps.StartedAt)),
			"away_users":  deps.Tracker.AwayCount(),
		})
	})
}

func setupAdminRoutes(router *gin.Engine, deps *dependency.Manager) {
	authMiddleware := middleware.NewAuthMiddleware(deps.Config.Security.JwtKey)

	admin := router.Group("/api/v1/admin")
	admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireAdminRights())
	{
		admin.GET("/away", func(c *gin.Context) {
			sessions, err := deps.AfkRepository.GetAllActiveSessions(c.Request.Context())
			if err != nil {
				c.JSON(500, gin.H{"error": "failed to load active sessions"})
				return
			}
			c.JSON(200, gin.H{"count": len(sessions), "sessions": sessions})
		})

		admin.GET("/leaderboard", func(c *gin.Context) {
			page := parseIntParam(c, "page", 1)
			board, err := deps.StatsService.MessageLeaderboard(c.Request.Context(), page)
			if err != nil {
				c.JSON(500, gin.H{"error": "failed to load leaderboard"})
				return
			}
			c.JSON(200, board)
		})

		admin.GET("/stats/:id", func(c *gin.Context) {
			userStats, err := deps.StatsService.UserStats(c.Request.Context(), c.Param("id"))
			if err != nil {
				c.JSON(500, gin.H{"error": "failed to load user stats"})
				return
			}
			c.JSON(200, userStats)
		})

		// The administrative reset is the only destructor for totals.
		admin.DELETE("/totals/:id", func(c *gin.Context) {
			userID := c.Param("id")
			if err := deps.AfkRepository.ResetAccumulatedTotal(c.Request.Context(), userID); err != nil {
				c.JSON(500, gin.H{"error": "failed to reset total"})
				return
			}
			logrus.WithField("user_id", userID).Info("Accumulated total reset by admin")
			c.JSON(200, gin.H{"status": "reset", "user_id": userID})
		})

		admin.GET("/blacklist", func(c *gin.Context) {
			entries, err := deps.Blacklist.All(c.Request.Context())
			if err != nil {
				c.JSON(500, gin.H{"error": "failed to load blacklist"})
				return
			}
			c.JSON(200, gin.H{"count": len(entries), "entries": entries})
		})

		admin.POST("/blacklist/:id", func(c *gin.Context) {
			userID := c.Param("id")
			if err := deps.Blacklist.Add(c.Request.Context(), userID, c.Query("reason")); err != nil {
				c.JSON(500, gin.H{"error": "failed to add blacklist entry"})
				return
			}
			c.JSON(200, gin.H{"status": "blacklisted", "user_id": userID})
		})

		admin.DELETE("/blacklist/:id", func(c *gin.Context) {
			userID := c.Param("id")
			if err := deps.Blacklist.Remove(c.Request.Context(), userID); err != nil {
				c.JSON(500, gin.H{"error": "failed to remove blacklist entry"})
				return
			}
			c.JSON(200, gin.H{"status": "removed", "user_id": userID})
		})
	}
}

func parseIntParam(c *gin.Context, name string, fallback int) int {
	value := fallback
	if raw := c.Query(name); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			value = parsed
		}
	}
	return value
}

func isMongoConnected(mongodb *clients.MongoDB, c *gin.Context) bool {
	return mongodb.Client.Ping(c.Request.Context(), nil) == nil
}

func isRedisConnected(redisClient *redis.Client, c *gin.Context) bool {
	return redisClient.Ping(c.Request.Context()).Err() == nil
}

func enableCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}

func getStatus(b bool) string {
	if b {
		return "connected"
	}
	return "disconnected"
}
