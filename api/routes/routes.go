package routes

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/blacklisthub/blacklisthub-backend/internal/config"
	"github.com/blacklisthub/blacklisthub-backend/internal/handlers"
	"github.com/blacklisthub/blacklisthub-backend/internal/middleware"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HandlerDependencies holds every handler the router mounts
type HandlerDependencies struct {
	AuthHandler      *handlers.AuthHandler
	UserHandler      *handlers.UserHandler
	BlacklistHandler *handlers.BlacklistHandler
	LookupHandler    *handlers.LookupHandler
	TaxonomyHandler  *handlers.TaxonomyHandler
	TokenVerifier    middleware.TokenVerifier
	// Gatherer backs /metrics; nil disables the endpoint
	Gatherer prometheus.Gatherer
	// HealthCheck reports store reachability; nil means always healthy
	HealthCheck func(ctx context.Context) error
	Logger      *slog.Logger
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.TimeoutMiddleware(cfg.Server.RequestTimeout))

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", health(deps.HealthCheck))

		auth := public.Group("/auth")
		{
			auth.POST("/login", deps.AuthHandler.Login)
			auth.POST("/logout", deps.AuthHandler.Logout)
		}

		public.GET("/blacklist/lookup", deps.LookupHandler.Lookup)
		public.GET("/blacklist/enhanced-lookup", deps.LookupHandler.EnhancedLookup)
		public.GET("/defaulters", deps.LookupHandler.Defaulters)
		public.GET("/rankings", deps.LookupHandler.Rankings)

		enums := public.Group("/enums")
		{
			enums.GET("/reason-codes", deps.TaxonomyHandler.List(models.TaxonomyReasonCode))
			enums.GET("/sources", deps.TaxonomyHandler.List(models.TaxonomySource))
			enums.GET("/regions", deps.TaxonomyHandler.List(models.TaxonomyRegion))
		}
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.TokenVerifier))
	{
		protected.GET("/auth/me", deps.AuthHandler.Me)
		protected.POST("/users", deps.UserHandler.CreateUser)

		blacklist := protected.Group("/blacklist")
		{
			blacklist.POST("", deps.BlacklistHandler.Submit)
			blacklist.GET("", deps.BlacklistHandler.List)
			blacklist.GET("/:id", deps.BlacklistHandler.Get)
			blacklist.PUT("/:id", deps.BlacklistHandler.Update)
			blacklist.DELETE("/:id", deps.BlacklistHandler.Delete)
			blacklist.POST("/:id/evidence", deps.BlacklistHandler.AddEvidence)
		}
	}

	return router
}

func health(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
