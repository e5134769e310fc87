package controller

import (
	"errors"

	"edulearn_backend/internal/model"
	"edulearn_backend/internal/service"
	"edulearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	Service *service.QuizService
}

func NewQuizController(svc *service.QuizService) *QuizController {
	return &QuizController{Service: svc}
}

type GenerateQuizRequest struct {
	CourseID          string               `json:"courseId" binding:"required"`
	LessonIDs         []string             `json:"lessonIds" binding:"required"`
	Difficulty        model.QuizDifficulty `json:"difficulty" binding:"required"`
	QuestionType      model.QuestionType   `json:"questionType" binding:"required"`
	NumberOfQuestions int                  `json:"numberOfQuestions" binding:"required"`
}

type SubmitQuizRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

type CheckAnswerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// @Summary 生成测验
// @Tags 测验模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body GenerateQuizRequest true "生成参数"
// @Success 201 {object} util.Response
// @Router /api/quiz/generate [post]
func (c *QuizController) Generate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req GenerateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.GenerateQuiz(ctx.Request.Context(), req.CourseID, req.LessonIDs, req.Difficulty, req.QuestionType, req.NumberOfQuestions)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx, "Course not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// @Summary 测验详情
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quiz/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	quiz, err := c.Service.GetQuizByID(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx, "Quiz not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// @Summary 删除测验
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quiz/{id} [delete]
func (c *QuizController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	err := c.Service.DeleteQuiz(claims.UserID, claims.Role, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx, "Quiz not found")
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx, "Course not found")
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// @Summary 提交答卷
// @Tags 测验模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Param body body SubmitQuizRequest true "逐题答案"
// @Success 200 {object} util.Response
// @Router /api/quiz/{id}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.Service.SubmitQuizAttempt(ctx.Request.Context(), claims.UserID, ctx.Param("id"), req.Answers)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx, "Quiz not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// @Summary 测验题目（学生视角，不含答案）
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quiz/{id}/questions [get]
func (c *QuizController) GetQuestions(ctx *gin.Context) {
	questions, err := c.Service.GetQuizQuestions(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx, "Quiz not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// @Summary 单题即时校验
// @Tags 测验模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Param questionId path string true "题目ID"
// @Param body body CheckAnswerRequest true "作答"
// @Success 200 {object} util.Response
// @Router /api/quiz/{id}/questions/{questionId}/answer [post]
func (c *QuizController) CheckAnswer(ctx *gin.Context) {
	var req CheckAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result := c.Service.CheckQuestionAnswer(ctx.Param("id"), ctx.Param("questionId"), req.Answer)
	util.Success(ctx, result)
}

// @Summary 查看题目答案与解析
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Param questionId path string true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/quiz/{id}/questions/{questionId}/reveal [get]
func (c *QuizController) RevealAnswer(ctx *gin.Context) {
	question, err := c.Service.GetQuestionByID(ctx.Param("id"), ctx.Param("questionId"))
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx, "Question not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, service.AnswerReveal{
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
	})
}

// @Summary 本人某测验的全部答题记录
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quiz/{id}/attempts [get]
func (c *QuizController) ListAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attempts, err := c.Service.GetUserAttempts(claims.UserID, ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// @Summary 答题记录详情
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Param attemptId path string true "答题记录ID"
// @Success 200 {object} util.Response
// @Router /api/quiz/{id}/attempts/{attemptId} [get]
func (c *QuizController) GetAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attempt, err := c.Service.GetAttemptByID(claims.UserID, ctx.Param("attemptId"))
	if err != nil {
		if errors.Is(err, util.ErrAttemptNotFound) {
			util.NotFound(ctx, "Attempt not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// @Summary 答题历史
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/quiz/history [get]
func (c *QuizController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	history, err := c.Service.GetUserQuizHistory(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, history)
}

// @Summary 答题统计
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/quiz/statistics [get]
func (c *QuizController) Statistics(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.Service.GetUserQuizStatistics(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
