package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maihouses/leadradar-go/internal/domain/repositories"
	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/manager"
	"github.com/maihouses/leadradar-go/internal/infrastructure/security"
	"github.com/maihouses/leadradar-go/pkg/config"
)

type stubAccountSource struct {
	account *repositories.UserAccountRow
}

func (s *stubAccountSource) FindAccount(ctx context.Context, identity string) (*repositories.UserAccountRow, error) {
	if s.account != nil && s.account.ID == identity {
		return s.account, nil
	}
	return nil, nil
}

func newAuthEnv(t *testing.T, account *repositories.UserAccountRow) *AuthService {
	t.Helper()
	config.JWTSecret = "test-secret"
	logger := newTestLogger(t)
	mode := newTestModeService(t, manager.NewManager(logger), logger)
	return NewAuthService(map[string]repositories.AccountSource{
		ModeMock: &stubAccountSource{account: account},
	}, mode, logger)
}

func TestIssueToken(t *testing.T) {
	hash, err := security.HashPassword("hunter2")
	require.NoError(t, err)
	svc := newAuthEnv(t, &repositories.UserAccountRow{ID: "agent-1", PasswordHash: hash, Role: "agent"})

	result, err := svc.IssueToken(context.Background(), "agent-1", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "agent-1", result.Identity)
	assert.Equal(t, "agent", result.Role)
	assert.NotEmpty(t, result.Token)

	claims, err := security.ValidateJWT(result.Token, config.JWTSecret)
	require.NoError(t, err)
	agent := security.GetAgentFromClaims(claims)
	require.NotNil(t, agent)
	assert.Equal(t, "agent-1", agent.Identity)
	assert.Equal(t, "agent", agent.Role)
}

func TestIssueTokenWrongPassword(t *testing.T) {
	hash, err := security.HashPassword("hunter2")
	require.NoError(t, err)
	svc := newAuthEnv(t, &repositories.UserAccountRow{ID: "agent-1", PasswordHash: hash, Role: "agent"})

	_, err = svc.IssueToken(context.Background(), "agent-1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestIssueTokenUnknownAccount(t *testing.T) {
	svc := newAuthEnv(t, nil)

	// Unknown identity and bad password fail with the same error so the
	// response does not reveal which part was wrong.
	_, err := svc.IssueToken(context.Background(), "nobody", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
