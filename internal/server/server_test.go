package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/mentorship-platform/internal/config"
	"github.com/sakif/mentorship-platform/internal/logger"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.HTTP.Port = 8080
	cfg.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.DB.Path = ":memory:"
	cfg.Auth.JWTSecret = "server-test-secret-0123456789"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.BcryptCost = 4
	cfg.Redis.TTL = time.Minute
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := New(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func call(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func register(t *testing.T, s *Server, first, role string) (token, id string) {
	t.Helper()
	rr := call(t, s, http.MethodPost, "/auth/register", "", map[string]any{
		"firstName": first, "lastName": "Tester", "email": first + "@example.com",
		"password": "secret123", "role": role,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp.Token, resp.User.ID
}

// =========================================================================
// ROUTER TESTS
// =========================================================================

func TestNew_RejectsBadSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "short"

	_, err := New(cfg, logger.Discard())

	assert.Error(t, err)
}

func TestRoutes_EndToEnd(t *testing.T) {
	s := newTestServer(t, testConfig())

	mentorToken, mentorID := register(t, s, "mia", "mentor")
	menteeToken, _ := register(t, s, "ned", "mentee")

	rr := call(t, s, http.MethodPost, "/connections/request", menteeToken, map[string]string{"receiverId": mentorID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))

	rr = call(t, s, http.MethodPost, "/connections/accept/"+created.ID, mentorToken, nil)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	for _, path := range []string{"/auth/me", "/profile", "/profile/me", "/profile/user/" + mentorID, "/connections"} {
		rr = call(t, s, http.MethodGet, path, menteeToken, nil)
		assert.Equal(t, http.StatusOK, rr.Code, "GET %s: %s", path, rr.Body.String())

		rr = call(t, s, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "GET %s without token", path)
	}

	rr = call(t, s, http.MethodDelete, "/connections/"+created.ID, menteeToken, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, s, http.MethodDelete, "/profile", menteeToken, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRoutes_GitHubOnlyWhenConfigured(t *testing.T) {
	disabled := newTestServer(t, testConfig())
	rr := call(t, disabled, http.MethodGet, "/auth/github/login", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	cfg := testConfig()
	cfg.GitHub.ClientID = "client-id"
	cfg.GitHub.ClientSecret = "client-secret"
	cfg.GitHub.CallbackURL = "http://localhost:8080/auth/github/callback"
	enabled := newTestServer(t, cfg)

	rr = call(t, enabled, http.MethodGet, "/auth/github/login", "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "github.com/login/oauth/authorize")
	assert.Contains(t, rr.Header().Get("Location"), "client_id=client-id")
}

func TestRoutes_CORSPreflight(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/connections/request", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/connections/request", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

// =========================================================================
// CACHE WIRING TESTS
// =========================================================================

func TestSearch_UsesRedisWhenConfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.Addr = mr.Addr()
	s := newTestServer(t, cfg)

	token, _ := register(t, s, "mia", "mentor")

	rr := call(t, s, http.MethodGet, "/profile?role=mentor", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	keys := mr.Keys()
	var cached int
	for _, k := range keys {
		if k != "profiles:search:version" {
			cached++
		}
	}
	assert.Equal(t, 1, cached, "keys: %v", keys)

	// A new registration bumps the version so the next search sees it.
	register(t, s, "max", "mentor")
	rr = call(t, s, http.MethodGet, "/profile?role=mentor", token, nil)
	var found []any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&found))
	assert.Len(t, found, 2)

	rr = call(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Contains(t, rr.Body.String(), `"cache":"ok"`)
}

func TestSearch_SurvivesRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.Addr = mr.Addr()
	s := newTestServer(t, cfg)
	token, _ := register(t, s, "mia", "mentor")

	mr.Close()

	rr := call(t, s, http.MethodGet, "/profile", token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"cache":"unreachable"`)
}
