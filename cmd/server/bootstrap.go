package main

import (
	"github.com/uniqdata/backend/internal/config"
	"github.com/uniqdata/backend/internal/core"
	"github.com/uniqdata/backend/internal/handlers"
	"github.com/uniqdata/backend/internal/models"
	"github.com/uniqdata/backend/internal/services"
	"github.com/uniqdata/backend/internal/utils"
	"github.com/uniqdata/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	coreClient         *core.Client
	participantService *services.ParticipantService
	dashboardService   *services.DashboardService
	authService        *services.AuthService
	reconcileQueue     services.ReconcileQueue
	worker             *services.ReconcileWorker
	authHandler        *handlers.AuthHandler
	participantHandler *handlers.ParticipantHandler
	dashboardHandler   *handlers.DashboardHandler
}

// bootstrap initializes all application dependencies: database, Core client,
// services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	services.InitSystemLogger(models.GetDB())
	services.StartLogCleanupScheduler(models.GetDB(), cfg.Log.RetentionDays)

	coreClient := core.NewClient(&cfg.Core)

	// Reconcile queue cleans up escrows orphaned by enroll races or local
	// write failures (uses Redis if enabled, otherwise in-process).
	reconciler := services.NewEscrowReconciler(coreClient)
	reconcileQueue := services.InitReconcileQueue(cfg)
	if syncQueue, ok := reconcileQueue.(*services.SyncReconcileQueue); ok {
		syncQueue.SetProcessor(reconciler)
	}

	var worker *services.ReconcileWorker
	if cfg.Redis.Enabled && reconcileQueue.IsAsync() {
		worker = services.NewReconcileWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(reconciler)
			worker.Start()
		}
	}

	participantService := services.NewParticipantService(
		models.GetDB(), coreClient, cfg.Escrow.DefaultAmountXRP, reconcileQueue)
	dashboardService := services.NewDashboardService(models.GetDB(), coreClient)

	authService := services.NewAuthService(models.GetDB(), &cfg.JWT)
	if err := authService.EnsureAdmin(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		coreClient:         coreClient,
		participantService: participantService,
		dashboardService:   dashboardService,
		authService:        authService,
		reconcileQueue:     reconcileQueue,
		worker:             worker,
		authHandler:        handlers.NewAuthHandler(authService),
		participantHandler: handlers.NewParticipantHandler(participantService),
		dashboardHandler:   handlers.NewDashboardHandler(dashboardService),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	services.StopLogCleanupScheduler()

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.reconcileQueue != nil {
		s.reconcileQueue.Close()
	}
	logger.Info().Msg("All services stopped")
}
