package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-sla-service/internal/auth"
	"github.com/spec-kit/case-sla-service/internal/config"
	"github.com/spec-kit/case-sla-service/internal/domain"
	"github.com/spec-kit/case-sla-service/internal/repository"
	apperrors "github.com/spec-kit/case-sla-service/pkg/util"
)

// AuthService handles staff login for the case API and the manual trigger.
type AuthService struct {
	accounts repository.AdminRepository
	tokens   *auth.TokenManager
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, accounts repository.AdminRepository) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokens:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// TokenManager exposes the shared token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AdminAccount, string, time.Time, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if !account.Active || !auth.VerifyPassword(account.PasswordHash, password) {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(account.ID, account.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return account, token, expiresAt, nil
}
