package mocks

import (
	"context"
	"time"

	"github.com/you/otams/domain"
)

// MockRefreshTokenStore implements domain.RefreshTokenStore interface for testing
type MockRefreshTokenStore struct {
	SaveFunc             func(ctx context.Context, token *domain.RefreshToken) error
	FindActiveFunc       func(ctx context.Context, token string) (*domain.RefreshToken, error)
	FindByTokenFunc      func(ctx context.Context, token string) (*domain.RefreshToken, error)
	RevokeFunc           func(ctx context.Context, token, revokedByIP string, reason domain.RevokeReason) (bool, error)
	RevokeAllForUserFunc func(ctx context.Context, userID, revokedByIP string, reason domain.RevokeReason) (int64, error)
	RotateFunc           func(ctx context.Context, oldToken string, next *domain.RefreshToken) error
	RevokeLineageFunc    func(ctx context.Context, token, revokedByIP string) (int64, error)
	PurgeExpiredFunc     func(ctx context.Context, before time.Time) (int64, error)

	// Saved records every token passed to Save or as the successor in Rotate
	Saved []*domain.RefreshToken
}

// NewMockRefreshTokenStore creates a new MockRefreshTokenStore with default behaviors
func NewMockRefreshTokenStore() *MockRefreshTokenStore {
	return &MockRefreshTokenStore{}
}

// Save persists a new token
func (m *MockRefreshTokenStore) Save(ctx context.Context, token *domain.RefreshToken) error {
	m.Saved = append(m.Saved, token)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, token)
	}
	return nil
}

// FindActive looks up an active token
func (m *MockRefreshTokenStore) FindActive(ctx context.Context, token string) (*domain.RefreshToken, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, token)
	}
	// Default behavior: not found
	return nil, domain.ErrRefreshTokenNotFound
}

// FindByToken looks up a token in any state
func (m *MockRefreshTokenStore) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	if m.FindByTokenFunc != nil {
		return m.FindByTokenFunc(ctx, token)
	}
	return nil, domain.ErrRefreshTokenNotFound
}

// Revoke revokes one token
func (m *MockRefreshTokenStore) Revoke(ctx context.Context, token, revokedByIP string, reason domain.RevokeReason) (bool, error) {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, token, revokedByIP, reason)
	}
	return false, nil
}

// RevokeAllForUser revokes every active token of a user
func (m *MockRefreshTokenStore) RevokeAllForUser(ctx context.Context, userID, revokedByIP string, reason domain.RevokeReason) (int64, error) {
	if m.RevokeAllForUserFunc != nil {
		return m.RevokeAllForUserFunc(ctx, userID, revokedByIP, reason)
	}
	return 0, nil
}

// Rotate replaces a token with its successor
func (m *MockRefreshTokenStore) Rotate(ctx context.Context, oldToken string, next *domain.RefreshToken) error {
	if m.RotateFunc != nil {
		if err := m.RotateFunc(ctx, oldToken, next); err != nil {
			return err
		}
	}
	m.Saved = append(m.Saved, next)
	return nil
}

// RevokeLineage revokes the successors of a token
func (m *MockRefreshTokenStore) RevokeLineage(ctx context.Context, token, revokedByIP string) (int64, error) {
	if m.RevokeLineageFunc != nil {
		return m.RevokeLineageFunc(ctx, token, revokedByIP)
	}
	return 0, nil
}

// PurgeExpired deletes long-expired tokens
func (m *MockRefreshTokenStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	if m.PurgeExpiredFunc != nil {
		return m.PurgeExpiredFunc(ctx, before)
	}
	return 0, nil
}

// Compile-time interface compliance verification
var _ domain.RefreshTokenStore = (*MockRefreshTokenStore)(nil)
