package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecoquest/ecoquest-api/internal/api/handler/v1/request"
	"github.com/ecoquest/ecoquest-api/internal/api/handler/v1/response"
	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/service"
)

type ChallengeService interface {
	CreateChallenge(ctx context.Context, creator domain.Identity, challenge domain.Challenge) (domain.Challenge, error)
	GetChallenge(ctx context.Context, id uint) (domain.Challenge, error)
	ListChallenges(ctx context.Context) ([]domain.Challenge, error)
}

type AccrualService interface {
	Submit(ctx context.Context, userID, challengeID uint, proof string) (domain.SubmissionResult, error)
}

type ChallengeHandler struct {
	svc     ChallengeService
	accrual AccrualService
}

func NewChallengeHandler(svc ChallengeService, accrual AccrualService) *ChallengeHandler {
	return &ChallengeHandler{
		svc:     svc,
		accrual: accrual,
	}
}

// HandleCreateChallenge godoc
// @Summary      Create a challenge
// @Description  Only teachers and admins can create challenges.
// @Tags         challenges
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateChallengeRequest  true  "Challenge details"
// @Success      201    {object}  domain.Challenge
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /challenges [post]
// @Security BearerAuth
func (h *ChallengeHandler) HandleCreateChallenge(ctx *gin.Context) {
	identity, respErr := identityFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.CreateChallengeRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.CreateChallenge(ctx.Request.Context(), identity, domain.Challenge{
		Title:       input.Title,
		Description: input.Description,
		Type:        domain.ChallengeType(input.Type),
		Points:      input.Points,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrInvalidChallenge):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleCreateChallenge -> h.svc.CreateChallenge -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListChallenges godoc
// @Summary      List challenges
// @Tags         challenges
// @Produce      json
// @Success      200  {array}   domain.Challenge
// @Failure      500  {object}  response.Err
// @Router       /challenges [get]
func (h *ChallengeHandler) HandleListChallenges(ctx *gin.Context) {
	challenges, err := h.svc.ListChallenges(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListChallenges -> h.svc.ListChallenges -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, challenges)
}

// HandleGetChallenge godoc
// @Summary      Get a challenge
// @Tags         challenges
// @Produce      json
// @Param        challengeID  path      int  true  "Challenge ID"
// @Success      200          {object}  domain.Challenge
// @Failure      400          {object}  response.Err
// @Failure      404          {object}  response.Err
// @Failure      500          {object}  response.Err
// @Router       /challenges/{challengeID} [get]
func (h *ChallengeHandler) HandleGetChallenge(ctx *gin.Context) {
	challengeID, respErr := uintParam(ctx, "challengeID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	challenge, err := h.svc.GetChallenge(ctx.Request.Context(), challengeID)
	if err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("challenge", "ID", challengeID))
			return
		}

		err = fmt.Errorf("v1.HandleGetChallenge -> h.svc.GetChallenge -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, challenge)
}

// HandleSubmitChallenge godoc
// @Summary      Submit proof for a challenge
// @Description  Each user can submit a challenge once. Accepted submissions add the challenge's points and may award badges.
// @Tags         challenges
// @Accept       json
// @Produce      json
// @Param        challengeID  path      int                             true  "Challenge ID"
// @Param        input        body      request.SubmitChallengeRequest  true  "Proof"
// @Success      201          {object}  domain.SubmissionResult
// @Failure      400          {object}  response.Err
// @Failure      401          {object}  response.Err
// @Failure      404          {object}  response.Err
// @Failure      409          {object}  response.Err
// @Failure      500          {object}  response.Err
// @Router       /challenges/{challengeID}/submit [post]
// @Security BearerAuth
func (h *ChallengeHandler) HandleSubmitChallenge(ctx *gin.Context) {
	identity, respErr := identityFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	challengeID, respErr := uintParam(ctx, "challengeID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.SubmitChallengeRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.accrual.Submit(ctx.Request.Context(), identity.UserID, challengeID, input.Proof)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChallengeNotFound):
			response.RenderErr(ctx, response.ErrNotFound("challenge", "ID", challengeID))
		case errors.Is(err, service.ErrAlreadySubmitted):
			response.RenderErr(ctx, response.ErrConflict(service.ErrAlreadySubmitted))
		case errors.Is(err, service.ErrUserNotFound):
			response.RenderErr(ctx, response.ErrUnauthorized(err))
		default:
			err = fmt.Errorf("v1.HandleSubmitChallenge -> h.accrual.Submit -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, result)
}
