package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/you/otams/domain"
	"github.com/you/otams/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.DSN = "sqlite://:memory:"
	cfg.JWTSecret = "app-test-secret-that-is-long-enough-32"
	cfg.BcryptCost = bcrypt.MinCost
	cfg.GinMode = "test"
	cfg.Port = "0"
	return cfg
}

func newTestContainer(t *testing.T, cfg *config.Config) *Container {
	t.Helper()
	c, err := NewContainer(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewContainer_WithoutRedis(t *testing.T) {
	c := newTestContainer(t, testConfig())

	assert.Nil(t, c.RedisClient)
	assert.Nil(t, c.Throttle)
	assert.NotNil(t, c.AuthSvc)
	policies, err := c.PolicySvc.Policies()
	require.NoError(t, err)
	assert.NotEmpty(t, policies)
}

func TestNewContainer_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()

	c := newTestContainer(t, cfg)

	require.NotNil(t, c.RedisClient)
	assert.NotNil(t, c.Throttle)
}

func TestNewContainer_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()
	mr.Close()

	_, err := NewContainer(context.Background(), cfg, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach redis")
}

func TestContainer_Router(t *testing.T) {
	c := newTestContainer(t, testConfig())
	r := c.Router()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPromoteAdmin(t *testing.T) {
	c := newTestContainer(t, testConfig())
	ctx := context.Background()

	_, err := c.AuthSvc.Register(ctx, domain.RegisterRequest{
		Email: "Boss@Example.com", Password: "secret1", Name: "Boss",
	}, "127.0.0.1")
	require.NoError(t, err)

	user, err := PromoteAdmin(ctx, c.UserRepo, "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	stored, err := c.UserRepo.FindByEmail(ctx, "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)

	again, err := PromoteAdmin(ctx, c.UserRepo, "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, again.Role)

	_, err = PromoteAdmin(ctx, c.UserRepo, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestPurgeTokens(t *testing.T) {
	c := newTestContainer(t, testConfig())
	ctx := context.Background()

	old := &domain.RefreshToken{
		TokenHash: domain.HashToken("old-token"),
		UserID:    "user-1",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-47 * time.Hour),
	}
	fresh := &domain.RefreshToken{
		TokenHash: domain.HashToken("fresh-token"),
		UserID:    "user-1",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, c.TokenStore.Save(ctx, old))
	require.NoError(t, c.TokenStore.Save(ctx, fresh))

	purged, err := PurgeTokens(ctx, c.TokenStore, time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = c.TokenStore.FindByToken(ctx, "fresh-token")
	assert.NoError(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.JanitorEnabled = true
	cfg.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, nil) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
