// Package startup prepares the application server
package startup

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maihouses/leadradar-go/internal/application/container"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/internal/infrastructure/security"
	"github.com/maihouses/leadradar-go/internal/presentation/http/server"
	"github.com/maihouses/leadradar-go/pkg/config"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	// Step 1: Initialize channeled logging
	loggerConfig := logging.DefaultLoggerConfig()
	loggerConfig.LogDirectory = config.LogDirectory
	if os.Getenv("LOG_LEVEL") == "debug" {
		loggerConfig.DefaultLevel = slog.LevelDebug
	}
	logger, err := logging.NewChanneledLogger(loggerConfig)
	if err != nil {
		return err
	}
	logger.Startup().Info("Channeled logging initialized", "directory", config.LogDirectory)

	if config.JWTSecret == "" {
		secret, err := security.GenerateSecureKey(64)
		if err != nil {
			return err
		}
		config.JWTSecret = secret
		logger.Startup().Warn("JWT_SECRET not set, generated an ephemeral secret; tokens will not survive a restart")
	}

	// Step 2: Create dependency injection container
	logger.Startup().Info("Initializing dependency injection container...")
	appContainer, err := container.NewContainer(logger)
	if err != nil {
		return err
	}
	logger.Startup().Info("Dependency injection container created with singleton services", "mode", appContainer.ModeService.Get())

	// Step 3: Start the ops feed broadcaster
	go appContainer.OpsBroadcaster.Run()
	logger.Startup().Info("Ops feed broadcaster started", "tick", config.OpsFeedTickInterval)

	// Step 4: Start HTTP server
	startServerTime := time.Now()
	httpServer := server.New(config.Port, appContainer)
	logger.Startup().Info("HTTP server initialized", "port", config.Port, "duration", time.Since(startServerTime))

	// Step 5: Setup graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"mode", appContainer.ModeService.Get(),
		"port", config.Port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Closing container resources...")
	if err := appContainer.Close(); err != nil {
		logger.Shutdown().Error("Error closing container", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
