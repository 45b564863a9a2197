package v1

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoquest/ecoquest-api/internal/api/handler/v1/response"
	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/pkg/jwthelper"
	"github.com/ecoquest/ecoquest-api/internal/service"
)

type stubAuthService struct {
	registered []domain.User
	err        error
}

func (s *stubAuthService) Register(_ context.Context, user domain.User) (domain.User, error) {
	if s.err != nil {
		return domain.User{}, s.err
	}
	if user.Role == "" {
		user.Role = domain.RoleStudent
	}
	user.ID = uint(len(s.registered) + 1)
	user.Password = ""
	s.registered = append(s.registered, user)
	return user, nil
}

func (s *stubAuthService) Login(_ context.Context, email, password string) (domain.User, error) {
	if s.err != nil {
		return domain.User{}, s.err
	}
	for _, u := range s.registered {
		if u.Email == email {
			if password != "secret123" {
				return domain.User{}, service.ErrWrongPassword
			}
			return u, nil
		}
	}
	return domain.User{}, service.ErrUserNotFound
}

func newAuthRouter(svc AuthService) *gin.Engine {
	h := NewAuthHandler(testAPIConfig, svc)
	r := gin.New()
	r.POST("/auth/register", h.HandleRegister)
	r.POST("/auth/login", h.HandleLogin)
	return r
}

func validRegistration() map[string]string {
	return map[string]string{
		"name":             "Ada",
		"email":            "ada@example.com",
		"password":         "secret123",
		"confirm_password": "secret123",
		"school":           "Greenfield",
	}
}

func TestAuthHandler_HandleRegister(t *testing.T) {
	svc := &stubAuthService{}
	router := newAuthRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/auth/register", validRegistration(), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[response.AuthResponse](t, rec)
	assert.Equal(t, "bearer", body.TokenType)
	assert.Equal(t, domain.RoleStudent, body.User.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	claims, err := jwthelper.ParseToken([]byte(testSigningKey), body.Token)
	require.NoError(t, err)
	assert.Equal(t, body.User.ID, claims.UserID)
}

func TestAuthHandler_HandleRegisterErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
		svcErr error
		want   int
	}{
		{name: "missing email", mutate: func(m map[string]string) { delete(m, "email") }, want: http.StatusBadRequest},
		{name: "weak password", mutate: func(m map[string]string) { m["password"], m["confirm_password"] = "password", "password" }, want: http.StatusBadRequest},
		{name: "confirm mismatch", mutate: func(m map[string]string) { m["confirm_password"] = "secret124" }, want: http.StatusBadRequest},
		{name: "unknown role", mutate: func(m map[string]string) { m["role"] = "root" }, want: http.StatusBadRequest},
		{name: "duplicate email", svcErr: service.ErrUserEmailExists, want: http.StatusConflict},
		{name: "storage failure", svcErr: errors.New("db down"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validRegistration()
			if tt.mutate != nil {
				tt.mutate(body)
			}
			router := newAuthRouter(&stubAuthService{err: tt.svcErr})

			rec := doRequest(t, router, http.MethodPost, "/auth/register", body, "")
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, http.StatusText(tt.want), decode[errBody](t, rec).Status)
		})
	}
}

func TestAuthHandler_HandleLogin(t *testing.T) {
	svc := &stubAuthService{}
	router := newAuthRouter(svc)
	require.Equal(t, http.StatusCreated, doRequest(t, router, http.MethodPost, "/auth/register", validRegistration(), "").Code)

	rec := doRequest(t, router, http.MethodPost, "/auth/login", map[string]string{"email": "ada@example.com", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[response.AuthResponse](t, rec).Token)

	rec = doRequest(t, router, http.MethodPost, "/auth/login", map[string]string{"email": "ada@example.com", "password": "nope12345"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	wrongPassword := decode[errBody](t, rec).Error

	rec = doRequest(t, router, http.MethodPost, "/auth/login", map[string]string{"email": "bob@example.com", "password": "secret123"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, wrongPassword, decode[errBody](t, rec).Error, "unknown email and wrong password are indistinguishable")

	rec = doRequest(t, router, http.MethodPost, "/auth/login", map[string]string{"email": "not-an-email"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
