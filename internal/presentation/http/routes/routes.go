// Package routes configures HTTP routing for the application.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/maihouses/leadradar-go/internal/application/container"
	"github.com/maihouses/leadradar-go/internal/presentation/http/handlers"
	"github.com/maihouses/leadradar-go/internal/presentation/http/middleware"
)

// SetupRoutes configures the gin router with all application routes
func SetupRoutes(c *container.Container) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware())

	authHandlers := handlers.NewAuthHandlers(c.AuthService, c.Logger)
	radarHandlers := handlers.NewRadarHandlers(c.SnapshotService, c.PurchaseService, c.LayoutService, c.StatsService, c.ModeService, c.Broadcaster, c.Logger)
	opsHandlers := handlers.NewOpsHandlers(c.OpsBroadcaster, c.Logger)
	healthHandlers := handlers.NewHealthHandlers(c.CacheManager, c.ModeService, c.DB)

	api := router.Group("/api/v1")
	{
		api.POST("/auth/token", authHandlers.PostToken)
		api.GET("/health", healthHandlers.GetHealth)

		radar := api.Group("/radar")
		radar.Use(middleware.AuthMiddleware(), middleware.RequireRole("agent", "admin", "official"))
		{
			radar.GET("/snapshot", radarHandlers.GetSnapshot)
			radar.POST("/purchase", radarHandlers.PostPurchase)
			radar.GET("/layout", radarHandlers.GetLayout)
			radar.GET("/stats", radarHandlers.GetStats)
			radar.GET("/listings/stats", radarHandlers.GetListingStats)
			radar.GET("/mode", radarHandlers.GetMode)
			radar.PUT("/mode", radarHandlers.PutMode)
			radar.GET("/events", radarHandlers.GetEventStream)
		}

		ops := api.Group("/ops")
		ops.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin", "official"))
		{
			ops.GET("/feed", opsHandlers.GetOpsFeed)
			ops.GET("/logs/stream", opsHandlers.StreamLogs)
			ops.GET("/logs/levels", opsHandlers.GetLogLevels)
			ops.POST("/logs/levels", opsHandlers.SetLogLevel)
		}
	}

	return router
}
