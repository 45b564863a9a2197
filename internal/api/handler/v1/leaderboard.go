package v1

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ecoquest/ecoquest-api/internal/api/handler/v1/response"
	"github.com/ecoquest/ecoquest-api/internal/domain"
)

type LeaderboardService interface {
	Leaderboard(ctx context.Context, school string, limit int) ([]domain.LeaderboardEntry, error)
}

type LeaderboardHandler struct {
	svc LeaderboardService
}

func NewLeaderboardHandler(svc LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		svc: svc,
	}
}

// HandleGetLeaderboard godoc
// @Summary      School leaderboard
// @Description  Users of a school ranked by points. Ties go to the earlier registration.
// @Tags         leaderboard
// @Produce      json
// @Param        school  path      string  true   "School name"
// @Param        limit   query     int     false  "Number of entries (default 10, max 100)"
// @Success      200     {array}   domain.LeaderboardEntry
// @Failure      400     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /leaderboard/{school} [get]
func (h *LeaderboardHandler) HandleGetLeaderboard(ctx *gin.Context) {
	school := ctx.Param("school")

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(domain.DefaultLeaderboardLimit)))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid limit: %w", err)))
		return
	}

	entries, err := h.svc.Leaderboard(ctx.Request.Context(), school, limit)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetLeaderboard -> h.svc.Leaderboard -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, entries)
}
