package e2e

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistration(t *testing.T) {
	ts := NewTestServer(t)
	email := UniqueEmail("register")

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "creates a customer",
			body:           map[string]string{"email": email, "password": testPassword, "name": "Ann"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "duplicate email with different case",
			body:           map[string]string{"email": strings.ToUpper(email), "password": testPassword, "name": "Ann"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Email already exists",
		},
		{
			name:           "malformed email",
			body:           map[string]string{"email": "not-an-email", "password": testPassword, "name": "Ann"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "short password",
			body:           map[string]string{"email": UniqueEmail("short"), "password": "abc", "name": "Ann"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing name",
			body:           map[string]string{"email": UniqueEmail("noname"), "password": testPassword},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.Do(t, http.MethodPost, "/auth/register", tt.body, "")

			assert.Equal(t, tt.expectedStatus, resp.Status)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, resp.Error())
			}
			if tt.expectedStatus == http.StatusOK {
				data := resp.Data(t)
				assert.Equal(t, "Bearer", data["token_type"])
				assert.Equal(t, "Customer", data["user"].(map[string]interface{})["role"])
			}
		})
	}
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	ts := NewTestServer(t)
	email := UniqueEmail("mixed")
	ts.Register(t, email)

	s := ts.Login(t, strings.ToUpper(email), testPassword)
	assert.Equal(t, email, s.Email)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	ts := NewTestServer(t)
	email := UniqueEmail("known")
	ts.Register(t, email)

	wrongPassword := ts.Do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "nope-nope"}, "")
	unknownEmail := ts.Do(t, http.MethodPost, "/auth/login", map[string]string{"email": UniqueEmail("ghost"), "password": "nope-nope"}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Status)
	assert.Equal(t, wrongPassword.Status, unknownEmail.Status)
	assert.Equal(t, wrongPassword.Body, unknownEmail.Body)
}

func TestLogin_Throttle(t *testing.T) {
	ts := NewTestServer(t)
	email := UniqueEmail("throttle")
	ts.Register(t, email)

	for i := 0; i < ts.Container.Config.LoginMaxFailures; i++ {
		resp := ts.Do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "wrong-pass"}, "")
		require.Equal(t, http.StatusUnauthorized, resp.Status)
	}

	// the correct password is refused while the window is open
	resp := ts.Do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": testPassword}, "")
	assert.Equal(t, http.StatusTooManyRequests, resp.Status)
	assert.Equal(t, "Too many failed login attempts", resp.Error())

	ts.Redis.FastForward(ts.Container.Config.LoginFailureWindow)
	ts.Login(t, email, testPassword)
}

func TestLogin_ThrottleHoldsUnderBurst(t *testing.T) {
	ts := NewTestServer(t)
	email := UniqueEmail("burst")
	ts.Register(t, email)

	const attempts = 12
	statuses := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := ts.Do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "wrong-pass"}, "")
			statuses <- resp.Status
		}()
	}
	wg.Wait()
	close(statuses)

	counts := map[int]int{}
	for status := range statuses {
		counts[status]++
	}
	assert.Equal(t, ts.Container.Config.LoginMaxFailures, counts[http.StatusUnauthorized])
	assert.Equal(t, attempts-ts.Container.Config.LoginMaxFailures, counts[http.StatusTooManyRequests])
}

func TestLogin_SuccessResetsThrottle(t *testing.T) {
	ts := NewTestServer(t)
	email := UniqueEmail("reset")
	ts.Register(t, email)

	for round := 0; round < 2; round++ {
		for i := 0; i < ts.Container.Config.LoginMaxFailures-1; i++ {
			resp := ts.Do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "wrong-pass"}, "")
			require.Equal(t, http.StatusUnauthorized, resp.Status)
		}
		ts.Login(t, email, testPassword)
	}
}

func TestLogin_ThrottleFailsOpen(t *testing.T) {
	ts := NewTestServer(t)
	email := UniqueEmail("redis-down")
	ts.Register(t, email)

	ts.Redis.Close()

	ts.Login(t, email, testPassword)
}
