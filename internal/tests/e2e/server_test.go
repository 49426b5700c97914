package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/you/otams/internal/app"
	"github.com/you/otams/internal/config"
)

const testPassword = "Test123!@#"

var emailSeq atomic.Int64

// TestServer runs the real router over sqlite and miniredis
type TestServer struct {
	Server    *httptest.Server
	Container *app.Container
	Redis     *miniredis.Miniredis
	Client    *http.Client
}

// NewTestServer starts a server; opts adjust the config before wiring
func NewTestServer(t *testing.T, opts ...func(*config.Config)) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.DSN = "sqlite://:memory:"
	cfg.RedisAddr = mr.Addr()
	cfg.JWTSecret = "e2e-test-secret-that-is-long-enough-32b"
	cfg.BcryptCost = bcrypt.MinCost
	cfg.CookieSecure = false
	cfg.LoginMaxFailures = 3
	for _, opt := range opts {
		opt(cfg)
	}
	require.NoError(t, cfg.Validate())

	c, err := app.NewContainer(context.Background(), cfg, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(c.Router())
	t.Cleanup(func() {
		srv.Close()
		_ = c.Close()
	})

	return &TestServer{
		Server:    srv,
		Container: c,
		Redis:     mr,
		Client:    newClient(t),
	}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

// Response is a decoded JSON envelope
type Response struct {
	Status int
	Body   map[string]interface{}
	Header http.Header
}

// Data returns the "data" object of a success envelope
func (r *Response) Data(t *testing.T) map[string]interface{} {
	t.Helper()
	data, ok := r.Body["data"].(map[string]interface{})
	require.Truef(t, ok, "no data object in %v", r.Body)
	return data
}

// Error returns the "error" message of a failure envelope
func (r *Response) Error() string {
	msg, _ := r.Body["error"].(string)
	return msg
}

// Do sends a JSON request with the server's default client
func (ts *TestServer) Do(t *testing.T, method, path string, body interface{}, accessToken string) *Response {
	t.Helper()
	return ts.DoWith(t, ts.Client, method, path, body, accessToken)
}

// DoWith sends a JSON request through client, so callers can control the cookie jar
func (ts *TestServer) DoWith(t *testing.T, client *http.Client, method, path string, body interface{}, accessToken string) *Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := &Response{Status: resp.StatusCode, Header: resp.Header}
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		require.NoError(t, json.Unmarshal(raw, &out.Body))
	}
	return out
}

// Session holds the credentials returned by register, login or refresh
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
}

func sessionFrom(t *testing.T, resp *Response) *Session {
	t.Helper()
	require.Equalf(t, http.StatusOK, resp.Status, "unexpected response: %v", resp.Body)
	data := resp.Data(t)
	user := data["user"].(map[string]interface{})
	return &Session{
		UserID:       user["id"].(string),
		Email:        user["email"].(string),
		AccessToken:  data["access_token"].(string),
		RefreshToken: data["refresh_token"].(string),
	}
}

// UniqueEmail returns an address no other test in the run uses
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, emailSeq.Add(1))
}

// Register creates an account and returns its first session
func (ts *TestServer) Register(t *testing.T, email string) *Session {
	t.Helper()
	resp := ts.Do(t, http.MethodPost, "/auth/register", map[string]string{
		"email":    email,
		"password": testPassword,
		"name":     "E2E User",
		"gender":   "F",
	}, "")
	return sessionFrom(t, resp)
}

// Login starts a new session for an existing account
func (ts *TestServer) Login(t *testing.T, email, password string) *Session {
	t.Helper()
	resp := ts.Do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	return sessionFrom(t, resp)
}

// Refresh exchanges a refresh token; the caller inspects the response
func (ts *TestServer) Refresh(t *testing.T, s *Session, refreshToken string) *Response {
	t.Helper()
	return ts.Do(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refreshToken}, s.AccessToken)
}

// PromoteAdmin grants Admin and logs in again so the access token carries the new role
func (ts *TestServer) PromoteAdmin(t *testing.T, email string) *Session {
	t.Helper()
	_, err := app.PromoteAdmin(context.Background(), ts.Container.UserRepo, email)
	require.NoError(t, err)
	return ts.Login(t, email, testPassword)
}
