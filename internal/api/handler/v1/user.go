package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecoquest/ecoquest-api/internal/api/handler/v1/response"
	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/service"
)

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
	GetBadges(ctx context.Context, userID uint) ([]domain.Badge, error)
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// HandleGetProfile godoc
// @Summary      Get the current user's profile
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /users/profile [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetProfile(ctx *gin.Context) {
	identity, respErr := identityFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	user, err := h.svc.GetUser(ctx.Request.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "ID", identity.UserID))
			return
		}

		err = fmt.Errorf("v1.HandleGetProfile -> h.svc.GetUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleGetBadges godoc
// @Summary      List the current user's badges
// @Tags         users
// @Produce      json
// @Success      200  {array}   domain.Badge
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /users/badges [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetBadges(ctx *gin.Context) {
	identity, respErr := identityFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	badges, err := h.svc.GetBadges(ctx.Request.Context(), identity.UserID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetBadges -> h.svc.GetBadges -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, badges)
}
