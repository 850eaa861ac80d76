package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maihouses/leadradar-go/internal/domain/repositories"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/internal/infrastructure/security"
	"github.com/maihouses/leadradar-go/pkg/config"
)

// ErrInvalidCredentials is returned for unknown accounts and bad passwords
// alike, so the response does not reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenResult is the issued token and its expiry.
type TokenResult struct {
	Token     string    `json:"token"`
	Identity  string    `json:"identity"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService issues agent tokens against the active mode's account source.
type AuthService struct {
	accounts map[string]repositories.AccountSource
	mode     *ModeService
	logger   *logging.ChanneledLogger
}

// NewAuthService creates a new auth service.
func NewAuthService(accounts map[string]repositories.AccountSource, mode *ModeService, logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{
		accounts: accounts,
		mode:     mode,
		logger:   logger,
	}
}

// IssueToken verifies credentials and returns a signed agent token.
func (s *AuthService) IssueToken(ctx context.Context, identity, password string) (*TokenResult, error) {
	mode := s.mode.Get()
	source, ok := s.accounts[mode]
	if !ok {
		return nil, fmt.Errorf("no account source for mode %q", mode)
	}

	account, err := source.FindAccount(ctx, identity)
	if err != nil {
		s.logger.LogAuthOperation("token_issue", identity, false)
		return nil, err
	}
	if account == nil || !security.CheckPassword(account.PasswordHash, password) {
		s.logger.LogAuthOperation("token_issue", identity, false)
		return nil, ErrInvalidCredentials
	}

	token, err := security.GenerateAgentToken(account.ID, account.Role, config.JWTSecret, config.TokenLifetime)
	if err != nil {
		s.logger.Auth().Error("Failed to sign agent token", "error", err.Error(), "identity", account.ID)
		return nil, err
	}

	s.logger.LogAuthOperation("token_issue", account.ID, true)
	return &TokenResult{
		Token:     token,
		Identity:  account.ID,
		Role:      account.Role,
		ExpiresAt: time.Now().UTC().Add(config.TokenLifetime),
	}, nil
}
