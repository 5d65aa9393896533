package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ukm-hub/backend/internal/auth"
	"github.com/ukm-hub/backend/internal/authz"
	"github.com/ukm-hub/backend/internal/events"
	"github.com/ukm-hub/backend/internal/middleware"
	"github.com/ukm-hub/backend/internal/organizations"
	"github.com/ukm-hub/backend/internal/registrations"
	"github.com/ukm-hub/backend/internal/reports"
	"github.com/ukm-hub/backend/pkg/response"
)

// handlers groups everything the router dispatches to.
type handlers struct {
	auth          *auth.Handler
	organizations *organizations.Handler
	events        *events.Handler
	registrations *registrations.Handler
	reports       *reports.Handler
}

// routerDeps carries the cross-cutting pieces the router needs besides handlers.
type routerDeps struct {
	verifier    middleware.TokenVerifier
	guard       *authz.Guard
	eventScope  middleware.EventScopeLookup
	registry    *prometheus.Registry
	corsOrigins string
	logger      *zap.Logger
}

func newRouter(h handlers, d routerDeps) *gin.Engine {
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	metrics := middleware.NewMetrics(d.registry)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(d.corsOrigins))
	router.Use(middleware.Logger(d.logger))
	router.Use(metrics.Handler())

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{})))

	// Public
	router.POST("/register", h.auth.Register)
	router.POST("/login", h.auth.Login)
	router.POST("/forgot-password", h.auth.ForgotPassword)
	router.PUT("/change-password", h.auth.ResetPassword)
	router.GET("/ukm", h.organizations.List)
	router.GET("/ukm/:ukm_id", h.organizations.Get)
	router.GET("/ukm/:ukm_id/events", h.events.ListByUKM)
	router.GET("/ukm/events/:event_id", h.events.Get)

	orgAdmin := middleware.RequireOrgAdmin(d.guard, middleware.FromParam("ukm_id"), d.logger)
	eventAdmin := middleware.RequireOrgAdmin(d.guard, middleware.FromEvent(d.eventScope, "event_id"), d.logger)
	globalAdmin := middleware.RequireGlobalAdmin(d.guard, d.logger)

	api := router.Group("")
	api.Use(middleware.Authenticate(d.verifier))
	{
		api.GET("/me", h.auth.Me)
		api.PUT("/users/:id/password", middleware.RequireSelfOrAdmin(d.guard, "id", d.logger), h.auth.ChangePassword)
		api.GET("/users", globalAdmin, h.auth.List)
		api.DELETE("/users/:id", globalAdmin, h.auth.Delete)

		api.POST("/ukm", globalAdmin, h.organizations.Create)
		api.DELETE("/ukm/:ukm_id", globalAdmin, h.organizations.Delete)
		api.POST("/ukm/:ukm_id/logo", orgAdmin, h.organizations.UploadLogo)
		api.POST("/ukm/:ukm_id/join", h.organizations.Join)
		api.DELETE("/ukm/:ukm_id/leave", h.organizations.Leave)

		api.POST("/ukm/:ukm_id/events", orgAdmin, h.events.Create)
		api.PUT("/ukm/events/:event_id", eventAdmin, h.events.Update)
		api.DELETE("/ukm/events/:event_id", eventAdmin, h.events.Delete)

		api.POST("/ukm/events/:event_id/register", h.registrations.Register)
		api.DELETE("/ukm/events/:event_id/unregister", h.registrations.Unregister)
		api.GET("/ukm/events/:event_id/participants", eventAdmin, h.registrations.ListParticipants)

		api.POST("/ukm/:ukm_id/reports", orgAdmin, h.reports.Create)
		api.GET("/ukm/:ukm_id/reports", orgAdmin, h.reports.List)
	}
	return router
}
