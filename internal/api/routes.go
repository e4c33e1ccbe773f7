package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/comit-io/galaxyapi/internal/api/shared"
	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/config"
	"github.com/comit-io/galaxyapi/internal/middleware"
)

// NewRouter builds the gin engine with every GalaxyAPI route.
func NewRouter(cfg *config.Config, h *Handlers, authMW *middleware.AuthMiddleware, log *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log))
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics())
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(promhttp.Handler()))
	}

	router.GET("/health", h.handleHealth)
	router.NoRoute(func(c *gin.Context) {
		shared.Fail(c, "api.NoRoute", apperrors.NotFound("api.NoRoute", "route not found"))
	})

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", h.handleLogin)

	authed := v1.Group("")
	authed.Use(authMW.RequireAuth())
	{
		authed.POST("/auth/renew", h.handleRenew)
		authed.POST("/auth/logout", h.handleLogout)
		authed.GET("/auth/profile", h.handleProfile)

		authed.GET("/permissions/types", h.handlePermissionTypes)
		groups := authed.Group("/groups", authMW.RequirePermission(cfg.Auth.Permissions.ManageGroups))
		groups.GET("", h.handleListGroups)
		groups.GET("/:id/permissions", h.handleGroupPermissions)

		authed.GET("/components", h.handleListComponents)
		authed.GET("/components/:id", h.handleGetComponent)
		authed.PUT("/components/:id/settings",
			authMW.RequirePermission(cfg.Auth.Permissions.EditComponents), h.handleUpdateSettings)
		authed.GET("/components/:id/alerts", h.handleComponentAlerts)

		authed.GET("/tags", h.handleListTags)
		authed.GET("/tags/search", h.handleSearchTags)
		authed.GET("/categories/search", h.handleSearchCategories)

		authed.GET("/queries", h.handleListQueries)
		authed.POST("/queries", h.handleCreateQuery)
		authed.DELETE("/queries/:id", h.handleDeleteQuery)

		authed.GET("/search/:core", h.handleSearch)
		authed.GET("/search/:core/fields", h.handleSearchFields)

		authed.GET("/mq/queues", h.handleListQueues)
		authed.GET("/mq/queues/:name", h.handleGetQueue)

		authed.POST("/email", authMW.RequirePermission(cfg.Auth.Permissions.SendEmail), h.handleSendEmail)

		if h.Alerts != nil {
			authed.GET("/alerts/stream", h.Alerts.ServeWS)
			authed.POST("/alerts/publish", h.Alerts.handlePublishAlert)
		}
	}

	return router
}

// NewServer wraps the router in an http.Server configured from cfg.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
