package controller

import (
	"codesikho_backend/internal/content"
	"codesikho_backend/internal/progression"
	"codesikho_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	Activities *content.Catalog
	Badges     *progression.Catalog
}

func NewContentController(activities *content.Catalog, badges *progression.Catalog) *ContentController {
	return &ContentController{Activities: activities, Badges: badges}
}

// @Summary 获取活动列表
// @Tags 内容
// @Produce json
// @Param kind query string false "quiz | coding_challenge | mini_game"
// @Success 200 {object} util.Response{data=util.ListResponse}
// @Failure 400 {object} util.Response
// @Router /api/activities [get]
func (c *ContentController) ListActivities(ctx *gin.Context) {
	kind := progression.ActivityKind(ctx.Query("kind"))
	if kind != "" && !kind.Valid() {
		util.BadRequest(ctx, "unknown activity kind: "+string(kind))
		return
	}

	activities := c.Activities.List(kind)
	util.Success(ctx, util.ListResponse{List: activities, Total: len(activities)})
}

// @Summary 获取徽章目录
// @Tags 内容
// @Produce json
// @Success 200 {object} util.Response{data=util.ListResponse}
// @Router /api/badges [get]
func (c *ContentController) ListBadges(ctx *gin.Context) {
	badges := c.Badges.All()
	util.Success(ctx, util.ListResponse{List: badges, Total: len(badges)})
}
