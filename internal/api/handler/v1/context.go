package v1

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ecoquest/ecoquest-api/internal/api/handler/v1/response"
	"github.com/ecoquest/ecoquest-api/internal/api/middleware"
	"github.com/ecoquest/ecoquest-api/internal/domain"
)

var errNoIdentity = errors.New("request is not authenticated")

func identityFromContext(ctx *gin.Context) (domain.Identity, *response.Err) {
	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		return domain.Identity{}, response.ErrUnauthorized(errNoIdentity)
	}

	return identity, nil
}

func uintParam(ctx *gin.Context, name string) (uint, *response.Err) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid %s %q", name, ctx.Param(name)))
	}

	return uint(id), nil
}
