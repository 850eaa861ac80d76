package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maihouses/leadradar-go/internal/application/services"
	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/manager"
	"github.com/maihouses/leadradar-go/internal/infrastructure/persistence/database"
)

// HealthHandlers exposes the liveness endpoint.
type HealthHandlers struct {
	cacheManager *manager.Manager
	modeService  *services.ModeService
	db           *database.DB
	startedAt    time.Time
}

// NewHealthHandlers creates health handlers with injected dependencies
func NewHealthHandlers(cacheManager *manager.Manager, modeService *services.ModeService, db *database.DB) *HealthHandlers {
	return &HealthHandlers{
		cacheManager: cacheManager,
		modeService:  modeService,
		db:           db,
		startedAt:    time.Now().UTC(),
	}
}

// GetHealth handles GET /api/v1/health
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	liveAvailable := false
	if h.db != nil {
		liveAvailable = h.db.Ping() == nil
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"mode":        h.modeService.Get(),
		"liveBackend": liveAvailable,
		"cache":       h.cacheManager.Health(),
		"uptimeSecs":  int(time.Since(h.startedAt).Seconds()),
		"serverTime":  time.Now().UTC().Format(time.RFC3339),
	})
}
