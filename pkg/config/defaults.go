// Package config provides centralized default values for the lead radar engine
package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found -- config defaults will be used")
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Radar Data Configuration
	DefaultMode         string
	ModeFilePath        string
	SessionFetchLimit   int
	FeedFetchLimit      int
	SnapshotTTL         time.Duration
	PurchaseCallTimeout time.Duration

	// Database Configuration
	DBDriver                 string
	DBPath                   string
	TursoDatabaseURL         string
	TursoAuthToken           string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int

	// Auth Configuration
	JWTSecret     string
	TokenLifetime time.Duration

	// Notification Configuration
	NotificationsEnabled bool
	NotificationInbox    string

	// SSE / Realtime Configuration
	SSEHeartbeatIntervalSeconds int
	OpsFeedTickInterval         time.Duration

	// Observability
	SlowQueryThreshold time.Duration
	LogDirectory       string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Radar Data Configuration
	DefaultMode = getEnvString("RADAR_DEFAULT_MODE", "mock")
	ModeFilePath = getEnvString("RADAR_MODE_FILE", "radar-mode.json")
	SessionFetchLimit = getEnvInt("RADAR_SESSION_FETCH_LIMIT", 50)
	FeedFetchLimit = getEnvInt("RADAR_FEED_FETCH_LIMIT", 5)
	SnapshotTTL = getEnvDuration("RADAR_SNAPSHOT_TTL", 15*time.Second)
	PurchaseCallTimeout = getEnvDuration("RADAR_PURCHASE_TIMEOUT", 10*time.Second)

	// Database Configuration
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "leadradar.db")
	TursoDatabaseURL = getEnvString("TURSO_DATABASE_URL", "")
	TursoAuthToken = getEnvString("TURSO_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)

	// Auth Configuration
	JWTSecret = getEnvString("JWT_SECRET", "")
	TokenLifetime = getEnvDuration("TOKEN_LIFETIME", 30*24*time.Hour)

	// Notification Configuration
	NotificationsEnabled = getEnvBool("NOTIFICATIONS_ENABLED", false)
	NotificationInbox = getEnvString("NOTIFICATION_INBOX", "")

	// SSE / Realtime Configuration
	SSEHeartbeatIntervalSeconds = getEnvInt("SSE_HEARTBEAT_INTERVAL_SECONDS", 30)
	OpsFeedTickInterval = getEnvDuration("OPS_FEED_TICK_INTERVAL", 20*time.Second)

	// Observability
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)
	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")
}
