package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"edulearn_backend/internal/model"
	"edulearn_backend/internal/repository"
	"edulearn_backend/internal/util"
	"edulearn_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const quizStatsCacheTTL = 5 * time.Minute

type QuizService struct {
	quizRepo   *repository.QuizRepository
	courseRepo *repository.CourseRepository
	aiService  *AIService
	redis      *redis.Client
}

func NewQuizService(quizRepo *repository.QuizRepository, courseRepo *repository.CourseRepository, aiService *AIService, redisClient *redis.Client) *QuizService {
	return &QuizService{
		quizRepo:   quizRepo,
		courseRepo: courseRepo,
		aiService:  aiService,
		redis:      redisClient,
	}
}

// QuestionView 学生视角的题目，不暴露正确答案与解析
type QuestionView struct {
	ID         string               `json:"id"`
	Text       string               `json:"text"`
	Type       model.QuestionType   `json:"type"`
	Options    []string             `json:"options,omitempty"`
	Difficulty model.QuizDifficulty `json:"difficulty"`
	Points     int                  `json:"points"`
	Order      int                  `json:"order"`
}

type AnswerReveal struct {
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

type AnswerCheckResult struct {
	IsCorrect bool `json:"isCorrect"`
}

type QuizHistoryEntry struct {
	AttemptID   string     `json:"attemptId"`
	QuizID      string     `json:"quizId"`
	QuizTitle   string     `json:"quizTitle"`
	Score       float64    `json:"score"`
	TotalPoints float64    `json:"totalPoints"`
	Percentage  float64    `json:"percentage"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type QuizStatistics struct {
	TotalAttempts int     `json:"totalAttempts"`
	TotalQuizzes  int     `json:"totalQuizzes"`
	AverageScore  float64 `json:"averageScore"`
	BestScore     float64 `json:"bestScore"`
}

// GenerateQuiz 按课时内容生成测验并与题目一并落库
func (s *QuizService) GenerateQuiz(ctx context.Context, courseID string, lessonIDs []string, difficulty model.QuizDifficulty, questionType model.QuestionType, numberOfQuestions int) (*model.Quiz, error) {
	course, err := s.courseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	if numberOfQuestions <= 0 {
		numberOfQuestions = 5
	}

	lessons, err := s.courseRepo.FindLessonsByIDs(courseID, lessonIDs)
	if err != nil {
		return nil, err
	}

	// 按请求给定的课时顺序拼接内容，缺失的课时跳过
	lessonByID := make(map[string]model.Lesson, len(lessons))
	for _, lesson := range lessons {
		lessonByID[lesson.ID] = lesson
	}
	parts := make([]string, 0, len(lessons))
	for _, id := range lessonIDs {
		lesson, ok := lessonByID[id]
		if !ok {
			continue
		}
		if lesson.Content != "" {
			parts = append(parts, lesson.Content)
		} else if lesson.Description != "" {
			parts = append(parts, lesson.Description)
		}
	}
	content := strings.Join(parts, " ")

	generated := s.aiService.GenerateQuestions(ctx, content, difficulty, questionType, numberOfQuestions)

	questions := make([]model.Question, 0, len(generated))
	for _, g := range generated {
		var options json.RawMessage
		if len(g.Options) > 0 {
			options, _ = json.Marshal(g.Options)
		}
		questions = append(questions, model.Question{
			Text:          g.Text,
			Type:          g.Type,
			Options:       options,
			CorrectAnswer: g.CorrectAnswer,
			Explanation:   g.Explanation,
			Difficulty:    g.Difficulty,
			Points:        1,
		})
	}

	quiz := &model.Quiz{
		Title:         fmt.Sprintf("%s Quiz", course.Title),
		Description:   fmt.Sprintf("Auto-generated quiz for %s", course.Title),
		CourseID:      course.ID,
		Difficulty:    difficulty,
		IsAIGenerated: true,
	}

	if err := s.quizRepo.CreateQuizWithQuestions(quiz, questions); err != nil {
		return nil, err
	}

	logger.Log.Info("quiz generated",
		zap.String("quizId", quiz.ID),
		zap.String("courseId", courseID),
		zap.Int("questions", len(questions)))

	return s.quizRepo.FindByID(quiz.ID)
}

func (s *QuizService) GetQuizByID(quizID string) (*model.Quiz, error) {
	quiz, err := s.quizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

// DeleteQuiz 仅课程讲师本人或管理员可删除，连带清理题目与作答记录
func (s *QuizService) DeleteQuiz(userID string, role model.UserRole, quizID string) error {
	quiz, err := s.GetQuizByID(quizID)
	if err != nil {
		return err
	}

	course, err := s.courseRepo.FindByID(quiz.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCourseNotFound
		}
		return err
	}
	if course.InstructorID != userID && role != model.Admin {
		return util.ErrPermissionDenied
	}

	return s.quizRepo.Delete(quiz.ID)
}

func (s *QuizService) GetQuizQuestions(quizID string) ([]QuestionView, error) {
	if _, err := s.GetQuizByID(quizID); err != nil {
		return nil, err
	}
	questions, err := s.quizRepo.ListQuestions(quizID)
	if err != nil {
		return nil, err
	}

	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, QuestionView{
			ID:         q.ID,
			Text:       q.Text,
			Type:       q.Type,
			Options:    q.OptionList(),
			Difficulty: q.Difficulty,
			Points:     q.Points,
			Order:      q.Order,
		})
	}
	return views, nil
}

func (s *QuizService) GetQuestionByID(quizID, questionID string) (*model.Question, error) {
	question, err := s.quizRepo.FindQuestionByID(quizID, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return question, nil
}

// SubmitQuizAttempt 整卷判分，未作答的题按 0 分记录
func (s *QuizService) SubmitQuizAttempt(ctx context.Context, userID, quizID string, answers map[string]string) (*model.QuizAttempt, error) {
	quiz, err := s.GetQuizByID(quizID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	attempt := &model.QuizAttempt{
		UserID:      userID,
		QuizID:      quiz.ID,
		CompletedAt: &now,
	}

	records := make([]model.QuizAnswer, 0, len(quiz.Questions))
	for _, question := range quiz.Questions {
		attempt.TotalPoints += float64(question.Points)

		submitted, ok := answers[question.ID]
		record := model.QuizAnswer{
			QuestionID: question.ID,
			Answer:     submitted,
		}
		if ok && gradeAnswer(&question, submitted) {
			record.IsCorrect = true
			record.Points = float64(question.Points)
			attempt.Score += record.Points
		}
		records = append(records, record)
	}

	if err := s.quizRepo.CreateAttemptWithAnswers(attempt, records); err != nil {
		return nil, err
	}
	attempt.Answers = records

	s.recordQuizProgress(userID, quiz.CourseID, scorePercentage(attempt.Score, attempt.TotalPoints))
	s.invalidateStatsCache(ctx, userID)

	return attempt, nil
}

// recordQuizProgress 未报名课程的提交不计入进度
func (s *QuizService) recordQuizProgress(userID, courseID string, percentage float64) {
	progress, err := s.courseRepo.FindProgress(userID, courseID)
	if err != nil {
		return
	}

	taken := progress.CompletedQuizzes
	progress.AverageScore = (progress.AverageScore*float64(taken) + percentage) / float64(taken+1)
	progress.CompletedQuizzes = taken + 1
	progress.LastAccessedAt = time.Now()

	if err := s.courseRepo.SaveProgress(progress); err != nil {
		logger.Log.Warn("Failed to update quiz progress",
			zap.String("userId", userID),
			zap.String("courseId", courseID),
			zap.Error(err))
	}
}

// CheckQuestionAnswer 单题即时校验，不落库；题目不存在时静默返回未命中
func (s *QuizService) CheckQuestionAnswer(quizID, questionID, answer string) AnswerCheckResult {
	question, err := s.quizRepo.FindQuestionByID(quizID, questionID)
	if err != nil {
		return AnswerCheckResult{IsCorrect: false}
	}
	return AnswerCheckResult{IsCorrect: gradeAnswer(question, answer)}
}

// gradeAnswer 选择题精确匹配，主观题做归一化比较并容忍包含关系
func gradeAnswer(question *model.Question, submitted string) bool {
	switch question.Type {
	case model.MultipleChoice:
		return submitted == question.CorrectAnswer
	case model.ShortAnswer, model.Essay:
		normSubmitted := strings.ToLower(strings.TrimSpace(submitted))
		normCorrect := strings.ToLower(strings.TrimSpace(question.CorrectAnswer))
		if normSubmitted == normCorrect {
			return true
		}
		return normCorrect != "" && strings.Contains(normSubmitted, normCorrect)
	default:
		return false
	}
}

func (s *QuizService) GetUserAttempts(userID, quizID string) ([]model.QuizAttempt, error) {
	return s.quizRepo.ListAttempts(userID, quizID)
}

func (s *QuizService) GetAttemptByID(userID, attemptID string) (*model.QuizAttempt, error) {
	attempt, err := s.quizRepo.FindAttemptByID(userID, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	return attempt, nil
}

func (s *QuizService) GetUserQuizHistory(userID string) ([]QuizHistoryEntry, error) {
	attempts, err := s.quizRepo.ListUserAttempts(userID)
	if err != nil {
		return nil, err
	}

	history := make([]QuizHistoryEntry, 0, len(attempts))
	for _, attempt := range attempts {
		entry := QuizHistoryEntry{
			AttemptID:   attempt.ID,
			QuizID:      attempt.QuizID,
			Score:       attempt.Score,
			TotalPoints: attempt.TotalPoints,
			Percentage:  scorePercentage(attempt.Score, attempt.TotalPoints),
			CompletedAt: attempt.CompletedAt,
		}
		if attempt.Quiz != nil {
			entry.QuizTitle = attempt.Quiz.Title
		}
		history = append(history, entry)
	}
	return history, nil
}

// GetUserQuizStatistics 统计结果带短 TTL 缓存，提交新答卷时失效
func (s *QuizService) GetUserQuizStatistics(ctx context.Context, userID string) (*QuizStatistics, error) {
	cacheKey := statsCacheKey(userID)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var stats QuizStatistics
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	attempts, err := s.quizRepo.ListUserAttempts(userID)
	if err != nil {
		return nil, err
	}

	stats := &QuizStatistics{}
	quizSeen := make(map[string]bool)
	totalPct := 0.0
	for _, attempt := range attempts {
		if attempt.CompletedAt == nil {
			continue
		}
		stats.TotalAttempts++
		quizSeen[attempt.QuizID] = true

		pct := scorePercentage(attempt.Score, attempt.TotalPoints)
		totalPct += pct
		if pct > stats.BestScore {
			stats.BestScore = pct
		}
	}
	stats.TotalQuizzes = len(quizSeen)
	if stats.TotalAttempts > 0 {
		stats.AverageScore = totalPct / float64(stats.TotalAttempts)
	}

	if s.redis != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, quizStatsCacheTTL).Err(); err != nil {
				logger.Log.Warn("failed to cache quiz statistics", zap.Error(err))
			}
		}
	}
	return stats, nil
}

func (s *QuizService) invalidateStatsCache(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, statsCacheKey(userID)).Err(); err != nil {
		logger.Log.Warn("failed to invalidate quiz statistics cache", zap.Error(err))
	}
}

func statsCacheKey(userID string) string {
	return "quiz:stats:" + userID
}

func scorePercentage(score, totalPoints float64) float64 {
	if totalPoints <= 0 {
		return 0
	}
	return score / totalPoints * 100
}
