package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sms-relay-hub/internal/config"
	"sms-relay-hub/internal/database"
	"sms-relay-hub/internal/delivery/http/handler"
	"sms-relay-hub/internal/ingestion"
	"sms-relay-hub/internal/middleware"
)

func SetupRoutes(cfg *config.Config, db *database.Database, processor *ingestion.Processor) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "database connection failed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "service is running",
		})
	})

	webhookHandler := handler.NewWebhookHandler(processor)

	v1 := router.Group("/api/v1")
	{
		webhookHandler.RegisterRoutes(v1)
		v1.GET("/metrics/ingest", webhookHandler.Metrics)
	}

	return router
}
