package api

import (
	"edusuite/internal/metrics"
	middlewarepkg "edusuite/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter builds the gin engine with global middleware, health checks and API routes
func SetupRouter(c *AppContainer, h *Handlers) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middlewarepkg.RequestIDMiddleware())
	router.Use(RequestLogger(c.Logger))
	router.Use(CORS(c.Config.Tenancy.HeaderName))
	router.Use(metrics.PrometheusMiddleware())

	// health checks
	router.GET("/health", HealthCheck(c.DB))
	router.GET("/ready", ReadinessCheck(c.DB))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterRoutes(router, c, h)
	return router
}
