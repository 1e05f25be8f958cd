package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edustack/lms-backend/internal/api"
	"edustack/lms-backend/internal/config"
	"edustack/lms-backend/internal/nm"
	"edustack/lms-backend/internal/repository/mongo"
	"edustack/lms-backend/internal/service"
	"edustack/lms-backend/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("FATAL: Could not initialize logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("starting LMS backend", zap.String("address", cfg.Server.Address))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureAdminUserIndexes(ctx, appDB.Collection("admin_users"))
		mongo.EnsureCourseIndexes(ctx, appDB.Collection("courses"))
		mongo.EnsureSubjectIndexes(ctx, appDB.Collection("subjects"))
		mongo.EnsureSessionIndexes(ctx, appDB.Collection("sessions"))
		mongo.EnsureResourceIndexes(ctx, appDB.Collection("resources"))
		mongo.EnsureAuditLogIndexes(ctx, appDB.Collection("audit_logs"))
		mongo.EnsureNmLaunchTokenIndexes(ctx, appDB.Collection("nm_launch_tokens"))
		mongo.EnsureNmPartnerIndexes(ctx, appDB)
		logger.Info("index creation process completed")
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3, logger)
	if err != nil {
		logger.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	// --- Initialize Repositories ---
	centerRepo := mongo.NewMongoCenterRepository(appDB)
	courseRepo := mongo.NewMongoCourseRepository(appDB)
	subjectRepo := mongo.NewMongoSubjectRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	resourceRepo := mongo.NewMongoResourceRepository(appDB)
	adminRepo := mongo.NewMongoAdminUserRepository(appDB)
	auditRepo := mongo.NewMongoAuditLogRepository(appDB)
	clientTokenRepo := mongo.NewMongoNmClientTokenRepository(appDB)
	launchTokenRepo := mongo.NewMongoNmLaunchTokenRepository(appDB)
	nmStudentRepo := mongo.NewMongoNmStudentRepository(appDB)
	nmSubscriptionRepo := mongo.NewMongoNmSubscriptionRepository(appDB)
	nmProgressRepo := mongo.NewMongoNmProgressRepository(appDB)

	// --- Initialize Services ---
	partnerClient := nm.NewClient(cfg.NM.BaseURL, cfg.NM.ClientID, cfg.NM.ClientSecret)
	tokenSource := service.NewTokenProvider(clientTokenRepo, partnerClient, logger)

	authService := service.NewAuthService(adminRepo, cfg.JWT.Secret, cfg.JWT.AdminExpiration, logger)
	auditService := service.NewAuditService(auditRepo, logger)
	contentService := service.NewContentService(centerRepo, courseRepo, subjectRepo, sessionRepo, logger)
	resourceService := service.NewResourceService(
		resourceRepo, sessionRepo, subjectRepo, courseRepo,
		fileStorage, cfg.Storage.BaseFolder, cfg.Storage.SignedURLTTL, logger,
	)
	nmService := service.NewNmService(
		courseRepo, subjectRepo, nmStudentRepo, nmSubscriptionRepo, nmProgressRepo, launchTokenRepo,
		partnerClient, tokenSource,
		cfg.JWT.Secret, cfg.JWT.SessionExpiration, cfg.NM.LaunchTokenTTL, logger,
	)

	// --- Seed Admin ---
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := authService.EnsureSeedAdmin(ctx, cfg.Admin.SeedEmail, cfg.Admin.SeedPassword); err != nil {
			logger.Error("failed to ensure seed admin", zap.Error(err))
		}
		cancel()
	}

	// --- Orphaned Object Reaper ---
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	if cfg.Storage.ReaperInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Storage.ReaperInterval)
			defer ticker.Stop()
			for {
				select {
				case <-reaperCtx.Done():
					return
				case <-ticker.C:
					removed, err := resourceService.ReconcileOrphans(reaperCtx, cfg.Storage.ReaperGrace)
					if err != nil {
						logger.Warn("orphan reconciliation failed", zap.Error(err))
						continue
					}
					if removed > 0 {
						logger.Info("orphaned objects removed", zap.Int("count", removed))
					}
				}
			}
		}()
	}

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware
	api.SetupRoutes(router, &cfg, authService, contentService, resourceService, auditService, nmService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  5 * time.Minute, // large resource uploads
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen and serve error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stopReaper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
