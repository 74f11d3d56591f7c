package main

import (
	"context"
	"errors"
	"fmt"
	"it-asset-tracker/internal/auth"
	"it-asset-tracker/internal/config"
	"it-asset-tracker/internal/database"
	"it-asset-tracker/internal/handler"
	"it-asset-tracker/internal/metrics"
	"it-asset-tracker/internal/middleware"
	"it-asset-tracker/internal/notification"
	"it-asset-tracker/internal/report"
	"it-asset-tracker/internal/repository"
	"it-asset-tracker/internal/router"
	"it-asset-tracker/internal/service"
	svcnotify "it-asset-tracker/internal/service/notification"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := log.Default()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelStartup()

	if err := database.Migrate(startupCtx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	assetRepo := repository.NewAssetRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize notification client. Without a URL notifications are logged.
	var notifier notification.Notifier
	if cfg.NotificationService.URL != "" {
		notifier = notification.NewNotifierWithConfig(notification.NotificationConfig{
			URL:            cfg.NotificationService.URL,
			Timeout:        cfg.NotificationService.Timeout,
			RetryAttempts:  cfg.NotificationService.RetryAttempts,
			RetryDelay:     cfg.NotificationService.RetryDelay,
			MaxPayloadSize: cfg.NotificationService.MaxPayloadSize,
		}, logger)
	} else {
		logger.Println("NOTIFIER_URL not set; notifications will be logged only")
		notifier = notification.NewLogNotifier(logger)
	}
	adapter := svcnotify.NewServiceAdapter(notifier)

	var m *metrics.Metrics
	if cfg.Server.EnableMetrics {
		m = metrics.New()
	}

	// Initialize services
	assetSvc := service.NewAssetService(assetRepo, adapter, logger).WithMetrics(m)
	if cfg.Reports.Bucket != "" {
		archiver, err := report.NewS3Archiver(startupCtx, report.S3Config{
			Bucket:          cfg.Reports.Bucket,
			Region:          cfg.Reports.Region,
			Endpoint:        cfg.Reports.Endpoint,
			Prefix:          cfg.Reports.Prefix,
			AccessKeyID:     cfg.Reports.AccessKeyID,
			SecretAccessKey: cfg.Reports.SecretAccessKey,
			PathStyle:       cfg.Reports.PathStyle,
		})
		if err != nil {
			log.Fatalf("Failed to initialize report archive: %v", err)
		}
		assetSvc.WithArchiver(archiver)
		logger.Printf("Inventory reports archive to s3://%s/%s", cfg.Reports.Bucket, cfg.Reports.Prefix)
	}

	repair := func(ctx context.Context) error {
		renames, err := assetSvc.RepairDuplicateSerials(ctx)
		if err != nil {
			return err
		}
		logger.Printf("Renamed %d duplicate serial numbers before building the index", len(renames))
		return nil
	}
	if err := database.SyncIndexes(startupCtx, db, repair, logger); err != nil {
		log.Fatalf("Failed to sync indexes: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	resets := auth.NewMemoryResetTokenStore(cfg.Auth.ResetTokenTTL, nil)
	userSvc := service.NewUserService(userRepo, tokens, resets, adapter, service.UserConfig{
		AdminEmail:    cfg.Auth.AdminEmail,
		AdminPassword: cfg.Auth.AdminPassword,
		ResetURL:      cfg.Auth.ResetURL,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		BcryptCost:    cfg.Auth.BcryptCost,
	}, logger)
	if _, err := userSvc.SeedAdmin(startupCtx); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	// Setup router with security configuration
	r := router.NewRouter(router.Handlers{
		Assets: handler.NewAssetHandler(assetSvc, logger),
		Users:  handler.NewUserHandler(userSvc, logger),
		Health: handler.NewHealthHandler(db.PingContext, logger),
	}, middleware.NewAuthMiddleware(tokens), m, cfg)

	// Wrap router with logging middleware
	loggingMW := middleware.NewLoggingMiddleware(logger)
	finalHandler := loggingMW.LogRequests(r)

	// Configure server with security settings
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		Handler:        finalHandler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	var metricsServer *http.Server
	if m != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
		}
		go func() {
			log.Printf("Serving metrics on port %d", cfg.Server.MetricsPort)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	// Channel to listen for interrupt signal to gracefully shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %d with security features enabled", cfg.Port)
		log.Printf("Security: Rate limit=%d RPS, Burst=%d, CORS=%v, Timeout=%v",
			cfg.Security.RateLimitRPS,
			cfg.Security.RateLimitBurst,
			cfg.Security.EnableCORS,
			cfg.Security.RequestTimeout,
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Block until we receive a signal
	<-done
	log.Println("Server is shutting down...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Security.ShutdownTimeout)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Printf("Metrics server forced to shutdown: %v", err)
		}
	}

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	} else {
		log.Println("Server exited gracefully")
	}

	// Let in-flight notifications finish
	assetSvc.Wait()
}
