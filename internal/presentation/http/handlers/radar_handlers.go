package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maihouses/leadradar-go/internal/application/services"
	"github.com/maihouses/leadradar-go/internal/infrastructure/messaging"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/internal/presentation/http/middleware"
	"github.com/maihouses/leadradar-go/pkg/config"
)

// RadarHandlers contains the HTTP handlers for the lead radar dashboard.
type RadarHandlers struct {
	snapshotService *services.SnapshotService
	purchaseService *services.PurchaseService
	layoutService   *services.LayoutService
	statsService    *services.StatsService
	modeService     *services.ModeService
	broadcaster     *messaging.SSEBroadcaster
	logger          *logging.ChanneledLogger
}

// NewRadarHandlers creates radar handlers with injected dependencies
func NewRadarHandlers(
	snapshotService *services.SnapshotService,
	purchaseService *services.PurchaseService,
	layoutService *services.LayoutService,
	statsService *services.StatsService,
	modeService *services.ModeService,
	broadcaster *messaging.SSEBroadcaster,
	logger *logging.ChanneledLogger,
) *RadarHandlers {
	return &RadarHandlers{
		snapshotService: snapshotService,
		purchaseService: purchaseService,
		layoutService:   layoutService,
		statsService:    statsService,
		modeService:     modeService,
		broadcaster:     broadcaster,
		logger:          logger,
	}
}

// GetSnapshot handles GET /api/v1/radar/snapshot - the full dashboard payload.
// Pass ?refresh=true to bypass the cache.
func (h *RadarHandlers) GetSnapshot(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	start := time.Now()

	forceRefresh := c.Query("refresh") == "true"

	data, err := h.snapshotService.LoadSnapshot(c.Request.Context(), identity, forceRefresh)
	if err != nil {
		h.logger.Snapshot().Error("Snapshot load failed", "error", err.Error(), "identity", identity)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load snapshot", "details": err.Error()})
		return
	}

	h.logger.Snapshot().Debug("Snapshot served", "identity", identity, "leads", len(data.Leads), "refresh", forceRefresh, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"mode": h.modeService.Get(),
		"data": data,
	})
}

// PostPurchase handles POST /api/v1/radar/purchase - buys one lead.
func (h *RadarHandlers) PostPurchase(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	var req struct {
		LeadID string `json:"leadId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	outcome, err := h.purchaseService.BuyLead(c.Request.Context(), identity, req.LeadID)
	if err != nil {
		h.logger.Purchase().Error("Purchase failed", "error", err.Error(), "identity", identity, "leadId", req.LeadID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Purchase failed", "details": err.Error()})
		return
	}

	c.JSON(purchaseStatus(outcome.Code), outcome)
}

// purchaseStatus maps an outcome code to an HTTP status. Business rejections
// are 409/402 so the client can distinguish them from transport trouble.
func purchaseStatus(code string) int {
	switch code {
	case services.PurchaseOK:
		return http.StatusOK
	case services.PurchaseInFlight, services.PurchaseLeadUnavail, services.PurchaseRejected:
		return http.StatusConflict
	case services.PurchaseQuotaExhausted, services.PurchaseNoPoints:
		return http.StatusPaymentRequired
	case services.PurchaseNetworkError:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// GetLayout handles GET /api/v1/radar/layout - resolved bubble positions for
// a container. Requires width and height query parameters.
func (h *RadarHandlers) GetLayout(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	width, werr := strconv.ParseFloat(c.Query("width"), 64)
	height, herr := strconv.ParseFloat(c.Query("height"), 64)
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "width and height query parameters must be positive numbers"})
		return
	}

	layout, err := h.layoutService.ComputeLayout(c.Request.Context(), identity, width, height)
	if err != nil {
		h.logger.Snapshot().Error("Layout computation failed", "error", err.Error(), "identity", identity)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to compute layout", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, layout)
}

// GetStats handles GET /api/v1/radar/stats - the traffic statistics payload.
func (h *RadarHandlers) GetStats(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	stats, err := h.statsService.Compute(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to compute stats", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetListingStats handles GET /api/v1/radar/listings/stats - per-listing
// engagement aggregation.
func (h *RadarHandlers) GetListingStats(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	stats, err := h.statsService.ListingStats(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to compute listing stats", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": stats})
}

// GetMode handles GET /api/v1/radar/mode - returns the active data mode.
func (h *RadarHandlers) GetMode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mode": h.modeService.Get()})
}

// PutMode handles PUT /api/v1/radar/mode - switches between mock and live.
func (h *RadarHandlers) PutMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.modeService.Set(req.Mode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to switch mode", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"mode": h.modeService.Get()})
}

// GetEventStream handles the SSE connection for per-identity radar updates.
func (h *RadarHandlers) GetEventStream(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ch := h.broadcaster.AddClient(identity)
	defer h.broadcaster.RemoveClient(ch, identity)

	fmt.Fprintf(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(time.Duration(config.SSEHeartbeatIntervalSeconds) * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-ch:
			if !ok {
				return false
			}
			fmt.Fprint(w, message)
			return true
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
