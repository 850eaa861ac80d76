// Package services provides application-level orchestration services
package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/manager"
	"github.com/maihouses/leadradar-go/internal/infrastructure/messaging"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/pkg/config"
)

// Data modes. Mock serves fixture data, live serves the production backend.
const (
	ModeMock = "mock"
	ModeLive = "live"
)

type modeFile struct {
	Mode      string    `json:"mode"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ModeService owns the data mode flag. The flag survives restarts via a small
// JSON file so an operator's switch to live is not silently undone by a deploy.
type ModeService struct {
	mu          sync.RWMutex
	current     string
	cache       *manager.Manager
	broadcaster *messaging.SSEBroadcaster
	logger      *logging.ChanneledLogger
}

// NewModeService creates the mode service, restoring any persisted mode.
func NewModeService(cache *manager.Manager, broadcaster *messaging.SSEBroadcaster, logger *logging.ChanneledLogger) *ModeService {
	s := &ModeService{
		current:     config.DefaultMode,
		cache:       cache,
		broadcaster: broadcaster,
		logger:      logger,
	}

	if data, err := os.ReadFile(config.ModeFilePath); err == nil {
		var persisted modeFile
		if err := json.Unmarshal(data, &persisted); err == nil && isValidMode(persisted.Mode) {
			s.current = persisted.Mode
			logger.Startup().Info("Restored persisted data mode", "mode", s.current, "updatedAt", persisted.UpdatedAt)
		}
	}

	logger.Startup().Info("Mode service initialized", "mode", s.current)
	return s
}

func isValidMode(mode string) bool {
	return mode == ModeMock || mode == ModeLive
}

// Get returns the active data mode.
func (s *ModeService) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set switches the data mode, persists the flag, drops every snapshot cached
// under the previous mode, and tells connected clients to refetch.
func (s *ModeService) Set(mode string) error {
	if !isValidMode(mode) {
		return fmt.Errorf("unknown mode %q", mode)
	}

	s.mu.Lock()
	previous := s.current
	if previous == mode {
		s.mu.Unlock()
		return nil
	}
	s.current = mode
	s.mu.Unlock()

	s.logger.System().Info("Data mode switched", "from", previous, "to", mode)

	if err := s.persist(mode); err != nil {
		s.logger.System().Error("Failed to persist data mode", "error", err.Error(), "mode", mode)
	}

	s.cache.InvalidateMode(previous)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastModeChanged(mode)
	}
	return nil
}

func (s *ModeService) persist(mode string) error {
	payload, err := json.Marshal(modeFile{Mode: mode, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return os.WriteFile(config.ModeFilePath, payload, 0o644)
}
