// Package container provides dependency injection for all singleton services
package container

import (
	"context"
	"fmt"

	"github.com/maihouses/leadradar-go/internal/application/services"
	"github.com/maihouses/leadradar-go/internal/domain/repositories"
	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/manager"
	"github.com/maihouses/leadradar-go/internal/infrastructure/email"
	"github.com/maihouses/leadradar-go/internal/infrastructure/messaging"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/internal/infrastructure/persistence/database"
	"github.com/maihouses/leadradar-go/internal/infrastructure/persistence/fixture"
	persistence "github.com/maihouses/leadradar-go/internal/infrastructure/persistence/radar"
	"github.com/maihouses/leadradar-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application Services
	ModeService         *services.ModeService
	SnapshotService     *services.SnapshotService
	PurchaseService     *services.PurchaseService
	LayoutService       *services.LayoutService
	StatsService        *services.StatsService
	AuthService         *services.AuthService
	NotificationService *services.NotificationService

	// Infrastructure Dependencies
	CacheManager   *manager.Manager
	Logger         *logging.ChanneledLogger
	Broadcaster    *messaging.SSEBroadcaster
	OpsBroadcaster *messaging.OpsBroadcaster
	DB             *database.DB
}

// NewContainer creates and wires all singleton services
func NewContainer(logger *logging.ChanneledLogger) (*Container, error) {
	cacheManager := manager.NewManager(logger)
	broadcaster := messaging.NewSSEBroadcaster(logger)

	fixtureStore := fixture.NewStore(logger)

	snapshotSources := map[string]repositories.SnapshotSource{
		services.ModeMock: fixtureStore,
	}
	purchaseGateways := map[string]repositories.PurchaseGateway{
		services.ModeMock: fixtureStore,
	}
	statsSources := map[string]repositories.StatsSource{
		services.ModeMock: fixtureStore,
	}
	accountSources := map[string]repositories.AccountSource{
		services.ModeMock: fixtureStore,
	}

	// The live backend is optional at startup; without it the engine runs in
	// mock mode only and a switch to live is rejected by the missing source.
	var db *database.DB
	var marker services.NotificationMarker
	dsn := config.DBPath
	if config.DBDriver == "libsql" {
		dsn = fmt.Sprintf("%s?authToken=%s", config.TursoDatabaseURL, config.TursoAuthToken)
		if err := database.TestTursoConnectionWithLogger(config.TursoDatabaseURL, config.TursoAuthToken, logger); err != nil {
			logger.Startup().Warn("Turso connection test failed", "error", err.Error())
		}
	}
	if conn, err := database.NewConnectionWithLogger(config.DBDriver, dsn, logger); err != nil {
		logger.Startup().Warn("Live database unavailable, mock mode only", "error", err.Error(), "driver", config.DBDriver)
	} else {
		db = conn
		if err := database.NewTableCreator().CreateSchema(conn.DB); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		if err := database.NewTableCreator().SeedInitialContent(conn.DB); err != nil {
			return nil, fmt.Errorf("failed to seed initial content: %w", err)
		}

		sqlSource := persistence.NewSQLSnapshotSource(conn, logger)
		sqlGateway := persistence.NewSQLPurchaseGateway(conn, logger)
		snapshotSources[services.ModeLive] = sqlSource
		purchaseGateways[services.ModeLive] = sqlGateway
		statsSources[services.ModeLive] = sqlSource
		accountSources[services.ModeLive] = sqlSource
		marker = sqlGateway
	}

	modeService := services.NewModeService(cacheManager, broadcaster, logger)
	snapshotService := services.NewSnapshotService(snapshotSources, cacheManager, modeService, logger)
	layoutService := services.NewLayoutService(snapshotService, cacheManager, logger)
	statsService := services.NewStatsService(statsSources, snapshotService, modeService, logger)
	authService := services.NewAuthService(accountSources, modeService, logger)

	var emailService email.Service
	if config.NotificationsEnabled {
		svc, err := email.NewService()
		if err != nil {
			logger.Startup().Warn("Email service unavailable, notifications disabled", "error", err.Error())
		} else {
			emailService = svc
		}
	}
	notificationService := services.NewNotificationService(emailService, marker, logger)

	purchaseService := services.NewPurchaseService(snapshotService, purchaseGateways, modeService, broadcaster, notificationService, logger)

	opsBroadcaster := messaging.NewOpsBroadcaster(func(ctx context.Context, identity string) (any, error) {
		return statsService.Compute(ctx, identity)
	}, logger)

	return &Container{
		ModeService:         modeService,
		SnapshotService:     snapshotService,
		PurchaseService:     purchaseService,
		LayoutService:       layoutService,
		StatsService:        statsService,
		AuthService:         authService,
		NotificationService: notificationService,
		CacheManager:        cacheManager,
		Logger:              logger,
		Broadcaster:         broadcaster,
		OpsBroadcaster:      opsBroadcaster,
		DB:                  db,
	}, nil
}

// Close releases infrastructure resources.
func (c *Container) Close() error {
	c.OpsBroadcaster.Shutdown()
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
