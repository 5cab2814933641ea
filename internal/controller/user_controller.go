package controller

import (
	"codesikho_backend/internal/service"
	"codesikho_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService  *service.UserService
	StatsService *service.StatsService
}

func NewUserController(userService *service.UserService, statsService *service.StatsService) *UserController {
	return &UserController{UserService: userService, StatsService: statsService}
}

// @Summary 初始化用户进度
// @Description Create the progress record for the authenticated user. The display name defaults to the token's name claim.
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body service.ProfileRequest false "资料"
// @Success 201 {object} util.Response{data=service.Profile}
// @Failure 409 {object} util.Response
// @Router /api/users [post]
func (c *UserController) Provision(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		return
	}

	var req service.ProfileRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	if req.DisplayName == "" {
		req.DisplayName = user.Name
	}

	profile, err := c.UserService.Provision(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, profile)
}

// @Summary 获取我的资料
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.Profile}
// @Failure 404 {object} util.Response
// @Router /api/users/me [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		return
	}

	profile, err := c.UserService.GetProfile(ctx.Request.Context(), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, profile)
}

// @Summary 更新我的资料
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body service.ProfileRequest true "资料"
// @Success 200 {object} util.Response{data=service.Profile}
// @Router /api/users/me [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		return
	}

	var req service.ProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	profile, err := c.UserService.UpdateProfile(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, profile)
}

// @Summary 获取学习统计
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=progression.DisplayStats}
// @Router /api/users/me/stats [get]
func (c *UserController) GetStats(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		return
	}

	stats, err := c.StatsService.GetStats(ctx.Request.Context(), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// @Summary 获取成就进度
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]progression.BadgeProgress}
// @Router /api/users/me/achievements [get]
func (c *UserController) GetAchievements(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		return
	}

	progress, err := c.UserService.Achievements(ctx.Request.Context(), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 获取最近活动
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Param limit query int false "返回数量" default(20)
// @Success 200 {object} util.Response{data=util.ListResponse}
// @Router /api/users/me/activity [get]
func (c *UserController) GetRecentActivity(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		return
	}

	limit := util.ParseLimit(ctx.Query("limit"), util.DefaultActivityLimit, util.MaxActivityLimit)
	entries, err := c.UserService.RecentActivity(ctx.Request.Context(), user.UserID, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, util.ListResponse{List: entries, Total: len(entries), Limit: limit})
}
