package http

import (
	"github.com/gin-gonic/gin"

	"github.com/HyungsunSo/AI-NutriCurator/config"
	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	switch cfg.Server.Environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	router := gin.New()
	log := logger.Named("http")

	// Global middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/match", handler.Match)
		v1.POST("/recommend", handler.Recommend)
		v1.POST("/swap", handler.Swap)
	}

	return router
}
