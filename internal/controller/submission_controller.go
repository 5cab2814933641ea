package controller

import (
	"codesikho_backend/internal/service"
	"codesikho_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	ProgressionService *service.ProgressionService
}

func NewSubmissionController(progressionService *service.ProgressionService) *SubmissionController {
	return &SubmissionController{ProgressionService: progressionService}
}

// @Summary 提交活动结果
// @Description Report a finished quiz, coding challenge or mini-game. XP, level and badges are awarded on the first completion only; resubmissions are logged with zero XP.
// @Tags 进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param submission body service.SubmissionRequest true "活动结果"
// @Success 200 {object} util.Response{data=service.SubmissionResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/submissions [post]
func (c *SubmissionController) Submit(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		return
	}

	var req service.SubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ProgressionService.SubmitActivity(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}
