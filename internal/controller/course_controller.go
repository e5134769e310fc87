package controller

import (
	"errors"
	"strconv"

	"edulearn_backend/internal/model"
	"edulearn_backend/internal/service"
	"edulearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	Service *service.CourseService
}

func NewCourseController(svc *service.CourseService) *CourseController {
	return &CourseController{Service: svc}
}

type CourseRequest struct {
	Title       string                 `json:"title" binding:"required"`
	Description string                 `json:"description" binding:"required"`
	Category    string                 `json:"category" binding:"required"`
	Difficulty  model.CourseDifficulty `json:"difficulty" binding:"required"`
	Thumbnail   string                 `json:"thumbnail"`
	Duration    int                    `json:"duration"`
	IsPublished bool                   `json:"isPublished"`
}

type LessonRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Content     string `json:"content"`
	VideoURL    string `json:"videoUrl"`
	Duration    int    `json:"duration"`
	Order       int    `json:"order"`
}

type CompleteLessonRequest struct {
	TimeSpentMinutes int      `json:"timeSpentMinutes"`
	Score            *float64 `json:"score"`
}

// @Summary 课程列表
// @Tags 课程模块
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Param category query string false "分类"
// @Param difficulty query string false "难度"
// @Success 200 {object} util.Response
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	category := ctx.Query("category")
	difficulty := ctx.Query("difficulty")

	result, err := c.Service.ListCourses(page, limit, category, difficulty)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 课程详情
// @Tags 课程模块
// @Produce json
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	course, err := c.Service.GetCourseDetail(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx, "Course not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary 创建课程
// @Tags 课程模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CourseRequest true "课程信息"
// @Success 201 {object} util.Response
// @Router /api/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course := &model.Course{
		Title:       util.SanitizeInput(req.Title),
		Description: util.SanitizeInput(req.Description),
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		Thumbnail:   req.Thumbnail,
		Duration:    req.Duration,
		IsPublished: req.IsPublished,
	}
	if err := c.Service.CreateCourse(claims.UserID, course); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// @Summary 更新课程
// @Tags 课程模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Param body body CourseRequest true "课程信息"
// @Success 200 {object} util.Response
// @Router /api/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course := &model.Course{
		Title:       util.SanitizeInput(req.Title),
		Description: util.SanitizeInput(req.Description),
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		Thumbnail:   req.Thumbnail,
		Duration:    req.Duration,
		IsPublished: req.IsPublished,
	}
	course.ID = ctx.Param("id")

	if err := c.Service.UpdateCourse(claims.UserID, claims.Role, course); err != nil {
		c.writeCourseError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Course updated"})
}

// @Summary 删除课程
// @Tags 课程模块
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.Service.DeleteCourse(claims.UserID, claims.Role, ctx.Param("id")); err != nil {
		c.writeCourseError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Course deleted"})
}

// @Summary 报名课程
// @Tags 课程模块
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.Service.EnrollUser(claims.UserID, ctx.Param("id")); err != nil {
		c.writeCourseError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Enrolled"})
}

// @Summary 查询课程进度
// @Tags 课程模块
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/progress [get]
func (c *CourseController) GetProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.Service.GetUserProgress(claims.UserID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrNotEnrolled) {
			util.NotFound(ctx, "Not enrolled in this course")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary 标记课时完成
// @Tags 课程模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Param lessonId path string true "课时ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/lessons/{lessonId}/complete [post]
func (c *CourseController) CompleteLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	// 请求体可省略，时长与得分均为可选
	var req CompleteLessonRequest
	_ = ctx.ShouldBindJSON(&req)

	err := c.Service.MarkLessonComplete(claims.UserID, ctx.Param("id"), ctx.Param("lessonId"), req.TimeSpentMinutes, req.Score)
	if err != nil {
		c.writeCourseError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Lesson completed"})
}

// @Summary 创建课时
// @Tags 课程模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Param body body LessonRequest true "课时信息"
// @Success 201 {object} util.Response
// @Router /api/courses/{id}/lessons [post]
func (c *CourseController) CreateLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson := &model.Lesson{
		Title:       util.SanitizeInput(req.Title),
		Description: util.SanitizeInput(req.Description),
		Content:     req.Content,
		VideoURL:    req.VideoURL,
		Duration:    req.Duration,
		Order:       req.Order,
	}
	if err := c.Service.CreateLesson(claims.UserID, claims.Role, ctx.Param("id"), lesson); err != nil {
		c.writeCourseError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// @Summary 更新课时
// @Tags 课程模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Param lessonId path string true "课时ID"
// @Param body body LessonRequest true "课时信息"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/lessons/{lessonId} [put]
func (c *CourseController) UpdateLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	update := &model.Lesson{
		Title:       util.SanitizeInput(req.Title),
		Description: util.SanitizeInput(req.Description),
		Content:     req.Content,
		VideoURL:    req.VideoURL,
		Duration:    req.Duration,
		Order:       req.Order,
	}
	if err := c.Service.UpdateLesson(claims.UserID, claims.Role, ctx.Param("id"), ctx.Param("lessonId"), update); err != nil {
		c.writeCourseError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Lesson updated"})
}

// @Summary 删除课时
// @Tags 课程模块
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Param lessonId path string true "课时ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/lessons/{lessonId} [delete]
func (c *CourseController) DeleteLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.Service.DeleteLesson(claims.UserID, claims.Role, ctx.Param("id"), ctx.Param("lessonId")); err != nil {
		c.writeCourseError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Lesson deleted"})
}

func (c *CourseController) writeCourseError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrCourseNotFound):
		util.NotFound(ctx, "Course not found")
	case errors.Is(err, util.ErrLessonNotFound):
		util.NotFound(ctx, "Lesson not found")
	case errors.Is(err, util.ErrNotEnrolled):
		util.NotFound(ctx, "Not enrolled in this course")
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}
