package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/vutto/pricing-service/internal/middleware"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Logger         zerolog.Logger
	InternalAPIKey string
	ClientLimiter  *middleware.IPRateLimiter
	ServiceLimit   middleware.RateLimiterConfig
	Health         map[string]Check
	Engine         *EngineHandler
	Revision       *RevisionHandler
}

// NewRouter builds the service router: public health, metrics and docs,
// and the authenticated /internal API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(cfg.Logger))
	if cfg.ClientLimiter != nil {
		router.Use(middleware.RateLimitMiddleware(cfg.ClientLimiter))
	}

	health := HealthCheck(cfg.Health)
	router.GET("/health", health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.InternalAPIKey))
	internal.Use(middleware.ServiceRateLimitMiddleware(cfg.ServiceLimit))
	{
		internal.GET("/health", health)
		if cfg.Engine != nil {
			RegisterEngineRoutes(internal, cfg.Engine)
		}
		if cfg.Revision != nil {
			RegisterRevisionRoutes(internal, cfg.Revision)
		}
	}

	return router
}
