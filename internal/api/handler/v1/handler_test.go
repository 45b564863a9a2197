package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ecoquest/ecoquest-api/internal/api/middleware"
	"github.com/ecoquest/ecoquest-api/internal/config"
	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/pkg/jwthelper"
	"github.com/ecoquest/ecoquest-api/internal/service"
)

const testSigningKey = "test-signing-key"

var testAPIConfig = &config.APIConfig{
	JWTSigningKey: testSigningKey,
	JWTTTL:        time.Hour,
}

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	identities map[uint]domain.Identity
}

func (r stubResolver) ResolveIdentity(_ context.Context, id uint) (domain.Identity, error) {
	identity, ok := r.identities[id]
	if !ok {
		return domain.Identity{}, service.ErrUserNotFound
	}
	return identity, nil
}

var (
	student = domain.Identity{UserID: 1, Role: domain.RoleStudent}
	teacher = domain.Identity{UserID: 2, Role: domain.RoleTeacher}
)

func newAuthenticator() *middleware.Authenticator {
	return middleware.NewAuthenticator(testSigningKey, stubResolver{identities: map[uint]domain.Identity{
		student.UserID: student,
		teacher.UserID: teacher,
	}})
}

func tokenFor(t *testing.T, userID uint) string {
	t.Helper()
	token, err := jwthelper.GenerateToken([]byte(testSigningKey), userID, "", time.Hour)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type errBody struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

type stubLeaderboardService struct {
	mu      sync.Mutex
	entries map[string][]domain.LeaderboardEntry
	limits  []int
	err     error
	// gates holds a school's queries until the channel is closed.
	gates   map[string]chan struct{}
}

func (s *stubLeaderboardService) Leaderboard(ctx context.Context, school string, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	gate := s.gates[school]
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = append(s.limits, limit)
	if s.err != nil {
		return nil, s.err
	}
	entries := s.entries[school]
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}

func (s *stubLeaderboardService) set(school string, entries []domain.LeaderboardEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[school] = entries
}
