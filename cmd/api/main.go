package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/config"
	v1 "github.com/mesworup/Pneumonia-Detection-CNN/internal/handler/v1"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/platform/dialogue"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/platform/inference"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/platform/storage"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/repository"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/service"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/auth"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/database"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/logger"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/metrics"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("tracer shutdown", zap.Error(err))
		}
	}()

	m := metrics.NewCollector(cfg.App.Name)

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("getting sql.DB: %w", err)
	}
	defer sqlDB.Close()

	store, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	var uploadDir string
	if local, ok := store.(*storage.LocalStore); ok {
		uploadDir = local.Dir()
	}

	users := repository.NewUserRepository(db)
	reports := repository.NewReportRepository(db)

	auditSvc := service.NewAuditService(repository.NewAuditRepository(db), m, log)
	defer auditSvc.Shutdown()

	notifySvc := service.NewNotificationService(repository.NewNotificationRepository(db), m, log)
	authSvc := service.NewAuthService(users, auth.NewJWTManager(cfg.JWT), notifySvc, auditSvc, m, cfg.Admin.Email, log)
	adminSvc := service.NewAdminService(users, authSvc, auditSvc, cfg.Admin.ResetPassword, log)
	reportSvc := service.NewReportService(
		reports, users, notifySvc,
		inference.NewClient(cfg.Inference, m, log),
		store, auditSvc, m, cfg.Inference.MaxUploadBytes, log,
	)
	chatSvc := service.NewChatService(reports, users, dialogue.NewGeminiClient(cfg.Dialogue, m, log), log)

	if cfg.Dialogue.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set; chat requests will fail")
	}

	adminPassword, isDefault := cfg.AdminPassword()
	if isDefault {
		log.Warn("ADMIN_PASSWORD not set; seeding super admin with the development default")
	}
	if err := authSvc.SeedSuperAdmin(ctx, cfg.Admin, adminPassword); err != nil {
		return fmt.Errorf("seeding super admin: %w", err)
	}

	router := v1.NewRouter(v1.RouterDeps{
		Config:        cfg,
		Log:           log,
		Metrics:       m,
		DB:            sqlDB,
		Auth:          authSvc,
		Admin:         adminSvc,
		Reports:       reportSvc,
		Notifications: notifySvc,
		Chat:          chatSvc,
		UploadDir:     uploadDir,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
