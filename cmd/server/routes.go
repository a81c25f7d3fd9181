package main

import (
	"github.com/gin-gonic/gin"
	"github.com/uniqdata/backend/internal/handlers"
	"github.com/uniqdata/backend/internal/middleware"
	"github.com/uniqdata/backend/internal/models"
	"github.com/uniqdata/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for enrollment routes; each enroll costs a ledger
	// transaction on the Core side.
	enrollLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", svc.authHandler.Login)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)

			// Dashboard
			protected.GET("/dashboard/summary", svc.dashboardHandler.GetSummary)

			// Projects (read for all users)
			projectHandler := handlers.NewProjectHandler(models.GetDB())
			protected.GET("/projects", projectHandler.List)
			protected.GET("/projects/:id", projectHandler.GetByID)

			// Participants
			protected.GET("/projects/:id/participants", svc.participantHandler.List)
			protected.GET("/projects/:id/participants/by-address", svc.participantHandler.GetByAddress)

			enroll := protected.Group("", enrollLimiter.Middleware())
			{
				enroll.POST("/projects/:id/participants/enroll", svc.participantHandler.Enroll)
				enroll.POST("/projects/:id/participants/withdraw", svc.participantHandler.Withdraw)
			}
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			// Projects (write operations)
			projectHandler := handlers.NewProjectHandler(models.GetDB())
			admin.POST("/projects", projectHandler.Create)
			admin.PUT("/projects/:id", projectHandler.Update)
			admin.DELETE("/projects/:id", projectHandler.Delete)

			// System Logs
			systemLogHandler := handlers.NewSystemLogHandler(models.GetDB())
			admin.GET("/system-logs", systemLogHandler.List)
			admin.DELETE("/system-logs", systemLogHandler.Cleanup)
		}
	}
}
