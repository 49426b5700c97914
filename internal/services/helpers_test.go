package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/you/otams/domain"
	"github.com/you/otams/internal/mocks"
)

// testDeps bundles the mocks behind an AuthService under test
type testDeps struct {
	userRepo    *mocks.MockUserRepository
	tokenStore  *mocks.MockRefreshTokenStore
	tx          *mocks.MockTransactor
	passwordSvc *mocks.MockPasswordService
	tokenSvc    *mocks.MockTokenService
	throttle    *mocks.MockLoginThrottle
	audit       *mocks.MockAuditLogger
}

func newTestDeps() *testDeps {
	return &testDeps{
		userRepo:    mocks.NewMockUserRepository(),
		tokenStore:  mocks.NewMockRefreshTokenStore(),
		tx:          &mocks.MockTransactor{},
		passwordSvc: mocks.NewMockPasswordService(),
		tokenSvc:    mocks.NewMockTokenService(),
		throttle:    mocks.NewMockLoginThrottle(),
		audit:       mocks.NewMockAuditLogger(),
	}
}

// createAuthServiceForTest creates an AuthService with mock dependencies for testing
func createAuthServiceForTest(t *testing.T, deps *testDeps, revokeLineage bool) domain.AuthService {
	t.Helper()

	return NewAuthService(deps.userRepo, deps.tokenStore, deps.tx, deps.passwordSvc, deps.tokenSvc, AuthOptions{
		Throttle:             deps.throttle,
		Audit:                deps.audit,
		RevokeLineageOnReuse: revokeLineage,
	})
}

// createValidUser creates a valid user entity for testing
func createValidUser(t *testing.T) *domain.User {
	t.Helper()

	return &domain.User{
		ID:           "user-1",
		Email:        "test@example.com",
		Name:         "Test User",
		Gender:       "F",
		PasswordHash: "hashed_password123",
		Role:         domain.RoleCustomer,
		CreatedAt:    time.Now().Add(-24 * time.Hour),
		UpdatedAt:    time.Now().Add(-1 * time.Hour),
	}
}

// createAdminUser creates an admin user entity for testing
func createAdminUser(t *testing.T) *domain.User {
	t.Helper()

	user := createValidUser(t)
	user.ID = "admin-1"
	user.Email = "admin@example.com"
	user.Role = domain.RoleAdmin
	return user
}

// createActiveToken creates an active refresh token record for raw
func createActiveToken(t *testing.T, raw, userID string) *domain.RefreshToken {
	t.Helper()

	now := time.Now().UTC()
	return &domain.RefreshToken{
		TokenHash: domain.HashToken(raw),
		UserID:    userID,
		CreatedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

// createRotatedToken creates a refresh token record already replaced by a successor
func createRotatedToken(t *testing.T, raw, userID string) *domain.RefreshToken {
	t.Helper()

	token := createActiveToken(t, raw, userID)
	revokedAt := time.Now().UTC().Add(-time.Minute)
	token.Revoked = true
	token.RevokedAt = &revokedAt
	token.RevokeReason = domain.RevokeReasonRotated
	token.ReplacedByHash = domain.HashToken(raw + "-successor")
	return token
}

// assertAuthResult validates the structure and content of an AuthResult
func assertAuthResult(t *testing.T, result *domain.AuthResult, expectedUser *domain.User) {
	t.Helper()

	if result == nil {
		t.Fatal("AuthResult is nil")
	}
	if result.User == nil {
		t.Fatal("AuthResult.User is nil")
	}
	if result.User.ID != expectedUser.ID {
		t.Errorf("expected user ID %s, got %s", expectedUser.ID, result.User.ID)
	}
	if result.User.Email != expectedUser.Email {
		t.Errorf("expected user email %s, got %s", expectedUser.Email, result.User.Email)
	}
	if result.AccessToken == "" {
		t.Error("AccessToken is empty")
	}
	if result.RefreshToken == "" {
		t.Error("RefreshToken is empty")
	}
	if result.ExpiresIn() <= 0 {
		t.Errorf("expected positive ExpiresIn, got %d", result.ExpiresIn())
	}
	if !result.RefreshTokenExpiresAt.After(result.AccessTokenExpiresAt) {
		t.Error("refresh token should outlive the access token")
	}
}

// assertError checks err against the expected sentinel or message fragment
func assertError(t *testing.T, err, expected error) {
	t.Helper()

	if expected == nil {
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		return
	}
	if err == nil {
		t.Fatalf("expected error %v, got nil", expected)
	}
	if !strings.Contains(err.Error(), expected.Error()) {
		t.Errorf("expected error containing '%s', got '%s'", expected.Error(), err.Error())
	}
}

// createTestContext creates a context for testing with timeout
func createTestContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func hasEvent(events []domain.AuditEventType, want domain.AuditEventType) bool {
	for _, e := range events {
		if e == want {
			return true
		}
	}
	return false
}
