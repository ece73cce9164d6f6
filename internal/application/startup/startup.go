// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimlgloss/glossary-go/internal/application/container"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/cleanup"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/database"
	"github.com/aimlgloss/glossary-go/internal/presentation/http/server"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until
// shutdown.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	// Step 1: Structured logging and performance tracking
	logger, err := logging.NewChanneledLogger(nil)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	perfTracker := performance.NewTracker(nil)
	logger.Startup().Info("Channeled logging initialized")

	// Step 2: Database connection and schema
	driver, dsn := database.BuildDSN()
	logger.Startup().Info("Connecting to database", "driver", driver)
	db, err := database.NewConnectionWithLogger(driver, dsn, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.NewTableCreator().CreateSchema(db.DB); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	logger.Startup().Info("Database schema verified")

	// Step 3: Dependency injection container
	appContainer, err := container.NewContainer(db, logger, perfTracker)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer appContainer.Close()
	logger.Startup().Info("Dependency injection container created")

	// Step 4: Scheduled maintenance (quota reset, guest sweep)
	if err := appContainer.MaintenanceService.Start(); err != nil {
		return fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}
	logger.Startup().Info("Maintenance scheduler started", "quotaResetSpec", config.QuotaResetCronSpec)

	// Step 5: Background cache cleanup worker
	cleanupWorker := cleanup.NewWorker(appContainer.CacheManager, &cleanup.Config{
		Interval: config.CleanupInterval,
	}, logger)
	go cleanupWorker.Start(ctx)

	// Step 6: HTTP server
	port := config.Port
	httpServer := server.New(port, appContainer)
	logger.Startup().Info("HTTP server initialized", "port", port)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"identityBackend", config.IdentityBackend,
		"port", port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures process-level logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
