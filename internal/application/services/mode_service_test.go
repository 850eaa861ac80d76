package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/manager"
)

func TestModeServiceDefaultsToMock(t *testing.T) {
	logger := newTestLogger(t)
	svc := newTestModeService(t, manager.NewManager(logger), logger)

	assert.Equal(t, ModeMock, svc.Get())
}

func TestModeServiceRejectsUnknownMode(t *testing.T) {
	logger := newTestLogger(t)
	svc := newTestModeService(t, manager.NewManager(logger), logger)

	err := svc.Set("staging")
	require.Error(t, err)
	assert.Equal(t, ModeMock, svc.Get())
}

func TestModeServiceSwitchAndPersist(t *testing.T) {
	logger := newTestLogger(t)
	cache := manager.NewManager(logger)
	svc := newTestModeService(t, cache, logger)

	require.NoError(t, svc.Set(ModeLive))
	assert.Equal(t, ModeLive, svc.Get())

	// A fresh service reading the same file restores the persisted mode.
	restored := NewModeService(cache, nil, logger)
	assert.Equal(t, ModeLive, restored.Get())
}

func TestModeServiceSetSameModeIsNoop(t *testing.T) {
	logger := newTestLogger(t)
	svc := newTestModeService(t, manager.NewManager(logger), logger)

	require.NoError(t, svc.Set(ModeMock))
	assert.Equal(t, ModeMock, svc.Get())
}
