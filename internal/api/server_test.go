package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoquest/ecoquest-api/internal/config"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		API: &config.APIConfig{
			Environment:        "test",
			Port:               "0",
			BaseURL:            "localhost",
			JWTSigningKey:      "server-test-key",
			JWTTTL:             time.Hour,
			AllowedCORSDomains: []string{"http://localhost:3000"},
			LoginRateLimit:     0.001,
			LoginBurst:         1,
		},
		Gin:      &config.GinConfig{Mode: gin.TestMode},
		Postgres: &config.PostgresConfig{},
		Redis:    &config.RedisConfig{TTL: time.Second},
		Gamification: &config.GamificationConfig{
			Badges: []config.ThresholdConfig{{Points: 100, Name: "Eco-Warrior Level 1"}},
		},
	}
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	return serveFrom(s, method, path, body, "")
}

// serveFrom sends the request with X-Forwarded-For set to forwardedFor. The
// httptest peer address is always 192.0.2.1.
func serveFrom(s *Server, method, path, body, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

// No route below reaches the database, so a nil *gorm.DB is enough.
func TestNewServer_Routes(t *testing.T) {
	s, err := NewServer(testConfig(), nil, nil)
	require.NoError(t, err)

	rec := serve(s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(s, http.MethodGet, "/api/v1/users/profile", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(s, http.MethodGet, "/api/v1/users/badges", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(s, http.MethodPost, "/api/v1/challenges", "{}").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(s, http.MethodPost, "/api/v1/challenges/1/submit", "{}").Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/api/v1/challenges/abc", "").Code)

	rec = serve(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ecoquest_http_requests_total")
}

func TestNewServer_LoginIsRateLimited(t *testing.T) {
	s, err := NewServer(testConfig(), nil, nil)
	require.NoError(t, err)

	// Invalid bodies are rejected before any storage access but still spend a token.
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodPost, "/api/v1/auth/login", "{}").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(s, http.MethodPost, "/api/v1/auth/login", "{}").Code)
}

func TestNewServer_LoginIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	s, err := NewServer(testConfig(), nil, nil)
	require.NoError(t, err)

	login := "/api/v1/auth/login"
	assert.Equal(t, http.StatusBadRequest, serveFrom(s, http.MethodPost, login, "{}", "203.0.113.1").Code)
	for _, ip := range []string{"203.0.113.2", "203.0.113.3", "198.51.100.7"} {
		assert.Equal(t, http.StatusTooManyRequests, serveFrom(s, http.MethodPost, login, "{}", ip).Code, ip)
	}
}

func TestNewServer_LoginHonorsForwardedForFromTrustedProxy(t *testing.T) {
	conf := testConfig()
	conf.API.TrustedProxies = []string{"192.0.2.0/24"}
	s, err := NewServer(conf, nil, nil)
	require.NoError(t, err)

	login := "/api/v1/auth/login"
	assert.Equal(t, http.StatusBadRequest, serveFrom(s, http.MethodPost, login, "{}", "203.0.113.1").Code)
	assert.Equal(t, http.StatusBadRequest, serveFrom(s, http.MethodPost, login, "{}", "203.0.113.2").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(s, http.MethodPost, login, "{}", "203.0.113.1").Code)
}

func TestNewServer_InvalidTrustedProxy(t *testing.T) {
	conf := testConfig()
	conf.API.TrustedProxies = []string{"not-an-ip"}

	_, err := NewServer(conf, nil, nil)
	assert.Error(t, err)
}

func TestNewServer_InvalidBadgeConfig(t *testing.T) {
	conf := testConfig()
	conf.Gamification.Badges = []config.ThresholdConfig{{Points: 0, Name: "Nothing"}}

	_, err := NewServer(conf, nil, nil)
	assert.Error(t, err)
}
