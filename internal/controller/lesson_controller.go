package controller

import (
	"edulearn_backend/internal/service"
	"edulearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	Service *service.AnalyticsService
}

func NewLessonController(svc *service.AnalyticsService) *LessonController {
	return &LessonController{Service: svc}
}

// @Summary 已完成课时汇总
// @Tags 课时统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/lessons/completed/summary [get]
func (c *LessonController) CompletedSummary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.Service.CompletedLessonsSummary(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// @Summary 已完成课时列表
// @Tags 课时统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/lessons/completed [get]
func (c *LessonController) CompletedList(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	items, err := c.Service.CompletedLessonsList(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, items)
}
