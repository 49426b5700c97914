package mocks

import (
	"context"
	"time"

	"github.com/you/otams/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	RegisterFunc         func(ctx context.Context, req domain.RegisterRequest, ipAddress string) (*domain.AuthResult, error)
	LoginFunc            func(ctx context.Context, email, password, ipAddress string) (*domain.AuthResult, error)
	RefreshTokenFunc     func(ctx context.Context, refreshToken, ipAddress string) (*domain.AuthResult, error)
	RevokeTokenFunc      func(ctx context.Context, refreshToken, ipAddress string) (bool, error)
	RevokeAllForUserFunc func(ctx context.Context, userID, ipAddress string) (int64, error)
	ChangePasswordFunc   func(ctx context.Context, userID, currentPassword, newPassword, ipAddress string) error
	UpdateProfileFunc    func(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error)
	GetUserByIDFunc      func(ctx context.Context, userID string) (*domain.User, error)
	ListUsersFunc        func(ctx context.Context) ([]*domain.User, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// MockAuthResult builds the token pair returned by the default behaviors
func MockAuthResult(user *domain.User) *domain.AuthResult {
	now := time.Now()
	return &domain.AuthResult{
		User:                  user,
		AccessToken:           "mock_access_token",
		AccessTokenExpiresAt:  now.Add(15 * time.Minute),
		RefreshToken:          "mock_refresh_token",
		RefreshTokenExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

// Register registers a new user
func (m *MockAuthService) Register(ctx context.Context, req domain.RegisterRequest, ipAddress string) (*domain.AuthResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req, ipAddress)
	}
	return MockAuthResult(&domain.User{
		ID:     "user-1",
		Email:  domain.NormalizeEmail(req.Email),
		Name:   req.Name,
		Gender: req.Gender,
		Role:   domain.RoleCustomer,
	}), nil
}

// Login authenticates a user and returns auth result
func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, ipAddress)
	}
	return MockAuthResult(&domain.User{ID: "user-1", Email: email, Role: domain.RoleCustomer}), nil
}

// RefreshToken rotates a refresh token
func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken, ipAddress string) (*domain.AuthResult, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken, ipAddress)
	}
	if refreshToken == "" {
		return nil, domain.ErrMissingToken
	}
	return MockAuthResult(&domain.User{ID: "user-1", Role: domain.RoleCustomer}), nil
}

// RevokeToken revokes a single refresh token
func (m *MockAuthService) RevokeToken(ctx context.Context, refreshToken, ipAddress string) (bool, error) {
	if m.RevokeTokenFunc != nil {
		return m.RevokeTokenFunc(ctx, refreshToken, ipAddress)
	}
	if refreshToken == "" {
		return false, domain.ErrMissingToken
	}
	return true, nil
}

// RevokeAllForUser revokes every active refresh token of a user
func (m *MockAuthService) RevokeAllForUser(ctx context.Context, userID, ipAddress string) (int64, error) {
	if m.RevokeAllForUserFunc != nil {
		return m.RevokeAllForUserFunc(ctx, userID, ipAddress)
	}
	return 1, nil
}

// ChangePassword changes the user's password
func (m *MockAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ipAddress string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, userID, currentPassword, newPassword, ipAddress)
	}
	return nil
}

// UpdateProfile updates name and gender
func (m *MockAuthService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, userID, update)
	}
	user := &domain.User{ID: userID, Role: domain.RoleCustomer}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Gender != nil {
		user.Gender = *update.Gender
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (m *MockAuthService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, userID)
	}
	return &domain.User{ID: userID, Email: "user@example.com", Role: domain.RoleCustomer}, nil
}

// ListUsers lists every user
func (m *MockAuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return []*domain.User{}, nil
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)
