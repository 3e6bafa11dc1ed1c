package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/krishimitra/yield-service/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.YieldHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	v1 := r.Group("/api/v1/yield")
	v1.POST("/estimate", handler.Estimate)
	v1.POST("/actual", handler.RecordActual)
	v1.GET("/history/:cropInstanceId", handler.History)
	v1.GET("/farmer/:farmerId", handler.FarmerPredictions)
	v1.GET("/variance/:cropInstanceId", handler.VarianceSummary)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
