// Package api exposes the plugin over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/announce/pkg/announce"
	"github.com/urmzd/announce/pkg/api/handlers"
	"github.com/urmzd/announce/pkg/db"
	"github.com/urmzd/announce/pkg/scheduler"
	"github.com/urmzd/announce/pkg/speech"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine    *gin.Engine
	store     *announce.Store
	sched     *scheduler.Scheduler
	database  *db.DB
	speaker   speech.Speaker
	profileID int64
}

// NewRouter creates a new API router
func NewRouter(store *announce.Store, sched *scheduler.Scheduler, database *db.DB, speaker speech.Speaker, profileID int64) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:    engine,
		store:     store,
		sched:     sched,
		database:  database,
		speaker:   speaker,
		profileID: profileID,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Swagger UI
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(301, "/swagger/index.html")
	})

	// Health check at root
	healthHandler := handlers.NewHealthHandler(r.store)
	r.engine.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.engine.Group("/api/v1")
	{
		// Health
		v1.GET("/health", healthHandler.Health)

		// Devices
		devicesHandler := handlers.NewDevicesHandler(r.database.Devices(), r.database.States(), r.database.Variables(), r.store, r.profileID)
		announcementsHandler := handlers.NewAnnouncementsHandler(r.store, r.sched)
		salutationsHandler := handlers.NewSalutationsHandler(r.database.Devices())
		devices := v1.Group("/devices")
		{
			devices.GET("", devicesHandler.List)
			devices.POST("", devicesHandler.Create)
			devices.GET("/:id", devicesHandler.Get)
			devices.PATCH("/:id", devicesHandler.Update)
			devices.DELETE("/:id", devicesHandler.Delete)
			devices.GET("/:id/states", devicesHandler.States)

			// Announcements of one device
			devices.GET("/:id/announcements", announcementsHandler.List)
			devices.POST("/:id/announcements", announcementsHandler.Create)
			devices.GET("/:id/announcements/:aid", announcementsHandler.Get)
			devices.PUT("/:id/announcements/:aid", announcementsHandler.Edit)
			devices.DELETE("/:id/announcements/:aid", announcementsHandler.Delete)
			devices.POST("/:id/announcements/:aid/duplicate", announcementsHandler.Duplicate)
			devices.POST("/:id/announcements/:aid/refresh", announcementsHandler.Refresh)

			// Salutation config
			devices.GET("/:id/salutations", salutationsHandler.Get)
			devices.PUT("/:id/salutations", salutationsHandler.Update)
		}

		// Substitution helpers
		v1.GET("/variables", devicesHandler.Variables)
		v1.POST("/markers", devicesHandler.Marker)

		// Actions
		actionsHandler := handlers.NewActionsHandler(r.store, r.sched, r.speaker, r.database.Variables())
		actions := v1.Group("/actions")
		{
			actions.POST("/refresh", actionsHandler.RefreshAll)
			actions.POST("/speak", actionsHandler.Speak)
		}
		v1.GET("/announcements/export", actionsHandler.Export)
	}
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
