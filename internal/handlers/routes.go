package handlers

import (
	"context"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Runtime            Emulator
	ResponseBufferSize int
	HealthCheck        func(ctx context.Context) error
	Logger             *logrus.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	h := NewRuntimeHandler(config.Runtime, config.ResponseBufferSize, config.Logger)

	router.GET("/health", h.Health(config.HealthCheck))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		functions := v1.Group("/functions")
		{
			functions.GET("", h.ListFunctions)
			functions.POST("/invoke", h.Invoke)
		}

		v1.POST("/publish", h.Publish)
		v1.GET("/messages", h.TakeMessages)
		v1.POST("/subscriptions", h.Subscribe)

		shadows := v1.Group("/shadows")
		{
			shadows.GET("", h.ListShadows)
			shadows.GET("/:thing", h.GetShadow)
			shadows.POST("/:thing", h.UpdateShadow)
			shadows.DELETE("/:thing", h.DeleteShadow)
		}

		secrets := v1.Group("/secrets")
		{
			secrets.GET("/:id", h.GetSecret)
			secrets.PUT("/:id", h.PutSecret)
		}
	}
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, logger *logrus.Logger) {
	router.Use(middleware.RequestID())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// Shadow documents are capped at 8KB, the rest is headroom for the envelope
	router.Use(middleware.RequestSizeLimit(64 * 1024))
	router.Use(middleware.ContentTypeValidation("application/json"))

	router.Use(middleware.RateLimiter(100, 200))
	router.Use(middleware.StructuredLogger(logger))
}
