package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/maihouses/leadradar-go/internal/infrastructure/messaging"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/internal/presentation/http/middleware"
)

const (
	opsWriteWait  = 10 * time.Second
	opsPongWait   = 60 * time.Second
	opsPingPeriod = (opsPongWait * 9) / 10
)

var opsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced at the middleware layer; the upgrade itself
		// accepts any origin that carried a valid token.
		return true
	},
}

// OpsHandlers contains the operational endpoints: the live stats feed, the
// log stream, and log level management.
type OpsHandlers struct {
	opsBroadcaster *messaging.OpsBroadcaster
	logger         *logging.ChanneledLogger
}

// NewOpsHandlers creates ops handlers with injected dependencies
func NewOpsHandlers(opsBroadcaster *messaging.OpsBroadcaster, logger *logging.ChanneledLogger) *OpsHandlers {
	return &OpsHandlers{
		opsBroadcaster: opsBroadcaster,
		logger:         logger,
	}
}

// GetOpsFeed handles the websocket connection for the periodic traffic stats
// feed. Each connected client receives the payload for its own identity.
func (h *OpsHandlers) GetOpsFeed(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	conn, err := opsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.SSE().Error("Websocket upgrade failed", "error", err.Error(), "identity", identity)
		return
	}

	client := &messaging.OpsClient{
		Conn:     conn,
		Identity: identity,
		Send:     make(chan []byte, 16),
	}
	h.opsBroadcaster.Register(client)

	go h.writePump(client)
	go h.readPump(client)
}

// writePump forwards broadcast messages to the websocket and keeps the
// connection alive with pings.
func (h *OpsHandlers) writePump(client *messaging.OpsClient) {
	ticker := time.NewTicker(opsPingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(opsWriteWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(opsWriteWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames so pongs and close frames are processed,
// then unregisters the client when the connection drops.
func (h *OpsHandlers) readPump(client *messaging.OpsClient) {
	defer func() {
		h.opsBroadcaster.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(opsPongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(opsPongWait))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// StreamLogs handles the SSE connection for live log streaming.
func (h *OpsHandlers) StreamLogs(c *gin.Context) {
	broadcaster := logging.GetBroadcaster()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	channelFilter := c.DefaultQuery("channel", "all")
	levelFilter := c.DefaultQuery("level", "INFO")
	logLevel, ok := parseLogLevel(levelFilter)
	if !ok {
		logLevel = slog.LevelInfo
	}

	filters := logging.AppliedFilters{
		Channel: logging.Channel(channelFilter),
		Level:   logLevel,
	}

	client := broadcaster.NewClient(filters)
	broadcaster.RegisterClient(client)
	defer broadcaster.UnregisterClient(client)

	fmt.Fprintf(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-client.Channel:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", message)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// GetLogLevels handles GET /ops-logs/levels - returns current log levels for all channels.
func (h *OpsHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.logger.GetChannelLevels())
}

// SetLogLevel handles POST /ops-logs/levels - sets the log level for a specific channel.
func (h *OpsHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	level, ok := parseLogLevel(req.Level)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := h.logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, req.Level)})
}

func parseLogLevel(level string) (slog.Level, bool) {
	switch level {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
