package controller

import (
	"codesikho_backend/internal/model"
	"codesikho_backend/internal/service"
	"codesikho_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
	DefaultLimit       int
	MaxLimit           int
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService, defaultLimit, maxLimit int) *LeaderboardController {
	return &LeaderboardController{
		LeaderboardService: leaderboardService,
		DefaultLimit:       defaultLimit,
		MaxLimit:           maxLimit,
	}
}

func filterFromQuery(ctx *gin.Context) service.LeaderboardFilter {
	return service.LeaderboardFilter{
		Metric:    model.LeaderboardMetric(ctx.Query("metric")),
		Timeframe: model.Timeframe(ctx.Query("timeframe")),
	}
}

// @Summary 获取排行榜
// @Description Top users by metric. Tied users share a rank.
// @Tags 排行榜
// @Produce json
// @Param metric query string false "xp | badges | challenges" default(xp)
// @Param timeframe query string false "all_time | weekly | monthly" default(all_time)
// @Param limit query int false "返回数量" default(10)
// @Success 200 {object} util.Response{data=service.LeaderboardPage}
// @Failure 400 {object} util.Response
// @Router /api/leaderboard [get]
func (c *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	limit := util.ParseLimit(ctx.Query("limit"), c.DefaultLimit, c.MaxLimit)

	page, err := c.LeaderboardService.Query(ctx.Request.Context(), filterFromQuery(ctx), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, page)
}

// @Summary 获取我的排名
// @Tags 排行榜
// @Produce json
// @Security BearerAuth
// @Param metric query string false "xp | badges | challenges" default(xp)
// @Param timeframe query string false "all_time | weekly | monthly" default(all_time)
// @Success 200 {object} util.Response{data=service.UserRank}
// @Failure 404 {object} util.Response
// @Router /api/users/me/rank [get]
func (c *LeaderboardController) GetMyRank(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		return
	}

	rank, err := c.LeaderboardService.RankOf(ctx.Request.Context(), user.UserID, filterFromQuery(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, rank)
}
