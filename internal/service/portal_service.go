package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sitetrace/cde-api/internal/models"
	"github.com/sitetrace/cde-api/pkg/config"
	appErrors "github.com/sitetrace/cde-api/pkg/errors"
)

type residentStore interface {
	GetByID(ctx context.Context, tenantID, id string) (*models.Resident, error)
	FindByToken(ctx context.Context, token string) (*models.Resident, error)
	SetToken(ctx context.Context, tenantID, id, token string, expiresAt time.Time) error
	ClearToken(ctx context.Context, tenantID, id string) error
	TouchLastActive(ctx context.Context, id string, at time.Time) error
}

// IssuedToken is the response to a token issue request. The token value
// is only ever returned here; it is not readable afterwards.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PortalService issues and validates resident portal access tokens.
// Tokens are opaque random strings with a fixed TTL; reissuing replaces
// any previous token for the resident.
type PortalService struct {
	repo   residentStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewPortalService constructs the service.
func NewPortalService(repo residentStore, cfg config.PortalConfig, logger *zap.Logger) *PortalService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 90 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortalService{
		repo:   repo,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// IssueToken generates a fresh portal token for a resident,
// invalidating any token issued before it.
func (s *PortalService) IssueToken(ctx context.Context, principal *models.Principal, residentID string) (*IssuedToken, error) {
	resident, err := s.repo.GetByID(ctx, principal.TenantID, residentID)
	if err != nil {
		return nil, storeError(err, "failed to load resident")
	}

	token, err := generateToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate token")
	}
	expiresAt := s.now().Add(s.ttl)

	if err := s.repo.SetToken(ctx, principal.TenantID, resident.ID, token, expiresAt); err != nil {
		return nil, storeError(err, "failed to store token")
	}

	s.logger.Info("portal token issued",
		zap.String("tenant_id", principal.TenantID),
		zap.String("resident_id", resident.ID),
		zap.Time("expires_at", expiresAt))

	return &IssuedToken{Token: token, ExpiresAt: expiresAt}, nil
}

// ValidateToken resolves a presented token to its resident. Unknown,
// mismatched and expired tokens all collapse to the same error so the
// portal leaks nothing about which check failed.
func (s *PortalService) ValidateToken(ctx context.Context, token string) (*models.Resident, error) {
	if token == "" {
		return nil, appErrors.ErrTokenInvalid
	}

	resident, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, appErrors.ErrTokenInvalid
	}
	if resident.PortalToken == nil ||
		subtle.ConstantTimeCompare([]byte(*resident.PortalToken), []byte(token)) != 1 {
		return nil, appErrors.ErrTokenInvalid
	}
	if resident.TokenExpires == nil || s.now().After(*resident.TokenExpires) {
		return nil, appErrors.ErrTokenInvalid
	}

	if err := s.repo.TouchLastActive(ctx, resident.ID, s.now()); err != nil {
		// Activity telemetry must not break portal access.
		s.logger.Warn("failed to record portal activity",
			zap.String("resident_id", resident.ID), zap.Error(err))
	}

	return resident, nil
}

// RevokeToken clears the resident's portal token immediately.
func (s *PortalService) RevokeToken(ctx context.Context, principal *models.Principal, residentID string) error {
	if _, err := s.repo.GetByID(ctx, principal.TenantID, residentID); err != nil {
		return storeError(err, "failed to load resident")
	}
	if err := s.repo.ClearToken(ctx, principal.TenantID, residentID); err != nil {
		return storeError(err, "failed to revoke token")
	}
	s.logger.Info("portal token revoked",
		zap.String("tenant_id", principal.TenantID),
		zap.String("resident_id", residentID))
	return nil
}

func generateToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
