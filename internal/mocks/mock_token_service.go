package mocks

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/you/otams/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	IssueAccessTokenFunc    func(user *domain.User) (string, time.Time, error)
	IssueRefreshTokenFunc   func(user *domain.User, ipAddress string) (string, *domain.RefreshToken, error)
	ValidateAccessTokenFunc func(token string) (*domain.AccessClaims, error)

	counter atomic.Int64
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// IssueAccessToken issues an access token for the user
func (m *MockTokenService) IssueAccessToken(user *domain.User) (string, time.Time, error) {
	if m.IssueAccessTokenFunc != nil {
		return m.IssueAccessTokenFunc(user)
	}
	// Default behavior: "access_<id>_<role>"
	return fmt.Sprintf("access_%s_%s", user.ID, user.Role), time.Now().Add(15 * time.Minute), nil
}

// IssueRefreshToken issues a unique refresh token for the user
func (m *MockTokenService) IssueRefreshToken(user *domain.User, ipAddress string) (string, *domain.RefreshToken, error) {
	if m.IssueRefreshTokenFunc != nil {
		return m.IssueRefreshTokenFunc(user, ipAddress)
	}
	raw := fmt.Sprintf("refresh_%s_%d", user.ID, m.counter.Add(1))
	now := time.Now().UTC()
	return raw, &domain.RefreshToken{
		TokenHash:   domain.HashToken(raw),
		UserID:      user.ID,
		CreatedByIP: ipAddress,
		CreatedAt:   now,
		ExpiresAt:   now.Add(7 * 24 * time.Hour),
	}, nil
}

// ValidateAccessToken validates an access token and returns claims
func (m *MockTokenService) ValidateAccessToken(token string) (*domain.AccessClaims, error) {
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	// Default behavior: accept tokens shaped like IssueAccessToken's default
	parts := strings.Split(token, "_")
	if len(parts) != 3 || parts[0] != "access" {
		return nil, domain.ErrTokenInvalid
	}
	role := domain.Role(parts[2])
	if !role.Valid() {
		return nil, domain.ErrTokenMalformed
	}
	now := time.Now()
	return &domain.AccessClaims{
		Subject:   parts[1],
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(15 * time.Minute),
	}, nil
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
