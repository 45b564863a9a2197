package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ecoquest/ecoquest-api/internal/api/handler/v1/response"
	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/pkg/jwthelper"
	"github.com/ecoquest/ecoquest-api/internal/service"
)

const identityKey = "identity"

var (
	errMissingToken   = errors.New("missing bearer token")
	errUnknownSubject = errors.New("token subject no longer exists")
	errUserAgent      = errors.New("token was issued to a different client")
)

// IdentityResolver maps a verified token subject to the current identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID uint) (domain.Identity, error)
}

type Authenticator struct {
	signingKey []byte
	resolver   IdentityResolver
}

func NewAuthenticator(signingKey string, resolver IdentityResolver) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
		resolver:   resolver,
	}
}

// VerifyJWT rejects the request with 401 unless it carries a valid bearer
// token for an existing user, and stores the caller's identity on the context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw, ok := bearerToken(ctx.GetHeader("Authorization"))
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		if claims.UserAgent != "" && claims.UserAgent != ctx.Request.UserAgent() {
			response.RenderErr(ctx, response.ErrUnauthorized(errUserAgent))
			return
		}

		identity, err := a.resolver.ResolveIdentity(ctx.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				response.RenderErr(ctx, response.ErrUnauthorized(errUnknownSubject))
				return
			}
			response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("a.resolver.ResolveIdentity -> %w", err)))
			return
		}

		ctx.Set(identityKey, identity)
		ctx.Next()
	}
}

// RequireRoles must run after VerifyJWT.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		identity, ok := IdentityFromContext(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		if err := domain.Authorize(identity, roles...); err != nil {
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
			return
		}

		ctx.Next()
	}
}

func IdentityFromContext(ctx *gin.Context) (domain.Identity, bool) {
	v, ok := ctx.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}

	identity, ok := v.(domain.Identity)
	return identity, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
