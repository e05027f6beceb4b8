package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go.ngs.io/coreg/internal/usecase"
)

// SetupRouter creates and configures the Gin router. An empty allowedOrigins
// allows all origins.
func SetupRouter(coregUC *usecase.CoregisterUseCase, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(coregUC, logger)

	// API v1 routes.
	v1 := router.Group("/v1")
	ops := v1.Group("/operations")
	ops.GET("", handler.ListOperations)
	ops.GET("/:name", handler.GetOperation)
	ops.POST("/"+usecase.OpCoregister, handler.Coregister)

	v1.GET("/datasets", handler.ListDatasets)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	return router
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
