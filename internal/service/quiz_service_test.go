package service

import (
	"context"
	"testing"

	"edulearn_backend/internal/model"
	"edulearn_backend/internal/repository"
	"edulearn_backend/internal/util"
	"edulearn_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newQuizTestService(t *testing.T) (*QuizService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	quizRepo := repository.NewQuizRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	svc := NewQuizService(quizRepo, courseRepo, newLocalAIService(), nil)
	return svc, db
}

func seedCourseWithLessons(t *testing.T, db *gorm.DB) (*model.Course, []model.Lesson) {
	t.Helper()
	instructor := &model.User{
		Email:     "teacher@example.com",
		Password:  "hashed",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      model.Instructor,
	}
	require.NoError(t, db.Create(instructor).Error)

	course := &model.Course{
		Title:        "Deep Learning",
		Description:  "Neural network fundamentals",
		InstructorID: instructor.ID,
		Category:     "ai",
		Difficulty:   model.Beginner,
		IsPublished:  true,
	}
	require.NoError(t, db.Create(course).Error)

	lessons := []model.Lesson{
		{Title: "Intro", Content: "Neural networks are powerful models.", Order: 1, CourseID: course.ID},
		{Title: "Representations", Content: "They learn hierarchical representations from data.", Order: 2, CourseID: course.ID},
	}
	for i := range lessons {
		require.NoError(t, db.Create(&lessons[i]).Error)
	}
	return course, lessons
}

func TestGenerateQuizPersistsQuestions(t *testing.T) {
	svc, db := newQuizTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	quiz, err := svc.GenerateQuiz(context.Background(), course.ID, []string{lessons[0].ID, lessons[1].ID}, model.Easy, model.MultipleChoice, 2)
	require.NoError(t, err)

	assert.True(t, quiz.IsAIGenerated)
	assert.Equal(t, course.ID, quiz.CourseID)
	assert.Equal(t, model.Easy, quiz.Difficulty)
	require.Len(t, quiz.Questions, 2)

	for i, q := range quiz.Questions {
		assert.Equal(t, i, q.Order)
		assert.NotEmpty(t, q.CorrectAnswer)
		assert.NotEmpty(t, q.OptionList())
		assert.Equal(t, 1, q.Points)
	}

	// 再次读取确认已落库
	var count int64
	require.NoError(t, db.Model(&model.Question{}).Where("quiz_id = ?", quiz.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestGenerateQuizCourseNotFound(t *testing.T) {
	svc, _ := newQuizTestService(t)

	_, err := svc.GenerateQuiz(context.Background(), "missing-course", nil, model.Easy, model.MultipleChoice, 2)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestSubmitQuizAttemptFullScore(t *testing.T) {
	svc, db := newQuizTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	quiz, err := svc.GenerateQuiz(context.Background(), course.ID, []string{lessons[0].ID, lessons[1].ID}, model.Easy, model.MultipleChoice, 2)
	require.NoError(t, err)

	answers := make(map[string]string, len(quiz.Questions))
	for _, q := range quiz.Questions {
		answers[q.ID] = q.CorrectAnswer
	}

	attempt, err := svc.SubmitQuizAttempt(context.Background(), "user-1", quiz.ID, answers)
	require.NoError(t, err)

	assert.Equal(t, float64(len(quiz.Questions)), attempt.Score)
	assert.Equal(t, float64(len(quiz.Questions)), attempt.TotalPoints)
	require.NotNil(t, attempt.CompletedAt)
	assert.Len(t, attempt.Answers, len(quiz.Questions))
	for _, a := range attempt.Answers {
		assert.True(t, a.IsCorrect)
	}
}

func TestSubmitQuizAttemptMissingAndWrongAnswers(t *testing.T) {
	svc, db := newQuizTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	quiz, err := svc.GenerateQuiz(context.Background(), course.ID, []string{lessons[0].ID, lessons[1].ID}, model.Easy, model.MultipleChoice, 2)
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 2)

	// 第一题答错，第二题不作答
	answers := map[string]string{
		quiz.Questions[0].ID: "definitely wrong",
	}

	attempt, err := svc.SubmitQuizAttempt(context.Background(), "user-1", quiz.ID, answers)
	require.NoError(t, err)

	assert.Zero(t, attempt.Score)
	assert.Equal(t, 2.0, attempt.TotalPoints)
	// 未作答的题也要有记录
	assert.Len(t, attempt.Answers, 2)
	for _, a := range attempt.Answers {
		assert.False(t, a.IsCorrect)
		assert.Zero(t, a.Points)
	}
}

func TestMultipleChoiceGradingIsCaseSensitive(t *testing.T) {
	question := &model.Question{Type: model.MultipleChoice, CorrectAnswer: "Neural"}

	assert.True(t, gradeAnswer(question, "Neural"))
	assert.False(t, gradeAnswer(question, "neural"))
	assert.False(t, gradeAnswer(question, " Neural "))
}

func TestShortAnswerGradingLeniency(t *testing.T) {
	question := &model.Question{Type: model.ShortAnswer, CorrectAnswer: "Gradient"}

	assert.True(t, gradeAnswer(question, "Gradient"))
	assert.True(t, gradeAnswer(question, "  gradient  "))
	assert.True(t, gradeAnswer(question, "The GRADIENT points uphill"))
	assert.False(t, gradeAnswer(question, "slope"))
	assert.False(t, gradeAnswer(question, ""))
}

func TestEssayGradingUsesSameRule(t *testing.T) {
	question := &model.Question{Type: model.Essay, CorrectAnswer: "overfitting"}

	assert.True(t, gradeAnswer(question, "Overfitting happens when models memorize noise"))
	assert.False(t, gradeAnswer(question, "underfitting"))
}

func TestCheckQuestionAnswerGracefulMiss(t *testing.T) {
	svc, _ := newQuizTestService(t)

	result := svc.CheckQuestionAnswer("missing-quiz", "missing-question", "anything")
	assert.False(t, result.IsCorrect)
}

func TestCheckQuestionAnswerHit(t *testing.T) {
	svc, db := newQuizTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	quiz, err := svc.GenerateQuiz(context.Background(), course.ID, []string{lessons[0].ID}, model.Easy, model.MultipleChoice, 1)
	require.NoError(t, err)
	require.NotEmpty(t, quiz.Questions)

	q := quiz.Questions[0]
	assert.True(t, svc.CheckQuestionAnswer(quiz.ID, q.ID, q.CorrectAnswer).IsCorrect)
	assert.False(t, svc.CheckQuestionAnswer(quiz.ID, q.ID, "wrong").IsCorrect)
}

func TestGetQuizQuestionsOmitsAnswers(t *testing.T) {
	svc, db := newQuizTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	quiz, err := svc.GenerateQuiz(context.Background(), course.ID, []string{lessons[0].ID, lessons[1].ID}, model.Easy, model.MultipleChoice, 2)
	require.NoError(t, err)

	views, err := svc.GetQuizQuestions(quiz.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.NotEmpty(t, v.Text)
		assert.NotEmpty(t, v.Options)
	}
}

func TestGetAttemptByIDEnforcesOwnership(t *testing.T) {
	svc, db := newQuizTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	quiz, err := svc.GenerateQuiz(context.Background(), course.ID, []string{lessons[0].ID}, model.Easy, model.MultipleChoice, 1)
	require.NoError(t, err)

	attempt, err := svc.SubmitQuizAttempt(context.Background(), "user-1", quiz.ID, nil)
	require.NoError(t, err)

	_, err = svc.GetAttemptByID("user-2", attempt.ID)
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)

	found, err := svc.GetAttemptByID("user-1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, attempt.ID, found.ID)
}

func TestQuizHistoryAndStatistics(t *testing.T) {
	svc, db := newQuizTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	quiz, err := svc.GenerateQuiz(context.Background(), course.ID, []string{lessons[0].ID, lessons[1].ID}, model.Easy, model.MultipleChoice, 2)
	require.NoError(t, err)

	full := make(map[string]string)
	for _, q := range quiz.Questions {
		full[q.ID] = q.CorrectAnswer
	}

	_, err = svc.SubmitQuizAttempt(context.Background(), "user-1", quiz.ID, full)
	require.NoError(t, err)
	_, err = svc.SubmitQuizAttempt(context.Background(), "user-1", quiz.ID, nil)
	require.NoError(t, err)

	history, err := svc.GetUserQuizHistory("user-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, entry := range history {
		assert.Equal(t, quiz.ID, entry.QuizID)
		assert.Equal(t, quiz.Title, entry.QuizTitle)
	}

	stats, err := svc.GetUserQuizStatistics(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalAttempts)
	assert.Equal(t, 1, stats.TotalQuizzes)
	assert.Equal(t, 100.0, stats.BestScore)
	assert.Equal(t, 50.0, stats.AverageScore)
}

func TestSubmitQuizAttemptUpdatesCourseProgress(t *testing.T) {
	svc, db := newQuizTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	progress := &model.Progress{UserID: "user-1", CourseID: course.ID, TotalLessons: 2}
	require.NoError(t, db.Create(progress).Error)

	quiz, err := svc.GenerateQuiz(context.Background(), course.ID, []string{lessons[0].ID, lessons[1].ID}, model.Easy, model.MultipleChoice, 2)
	require.NoError(t, err)

	full := make(map[string]string)
	for _, q := range quiz.Questions {
		full[q.ID] = q.CorrectAnswer
	}
	_, err = svc.SubmitQuizAttempt(context.Background(), "user-1", quiz.ID, full)
	require.NoError(t, err)
	_, err = svc.SubmitQuizAttempt(context.Background(), "user-1", quiz.ID, nil)
	require.NoError(t, err)

	var updated model.Progress
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", "user-1", course.ID).First(&updated).Error)
	assert.Equal(t, 2, updated.CompletedQuizzes)
	assert.Equal(t, 50.0, updated.AverageScore)
	assert.False(t, updated.LastAccessedAt.IsZero())

	// 未报名用户的提交不计入任何进度
	_, err = svc.SubmitQuizAttempt(context.Background(), "user-2", quiz.ID, full)
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&model.Progress{}).Where("user_id = ?", "user-2").Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteQuizPermissionAndCascade(t *testing.T) {
	svc, db := newQuizTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	quiz, err := svc.GenerateQuiz(context.Background(), course.ID, []string{lessons[0].ID, lessons[1].ID}, model.Easy, model.MultipleChoice, 2)
	require.NoError(t, err)

	_, err = svc.SubmitQuizAttempt(context.Background(), "user-1", quiz.ID, nil)
	require.NoError(t, err)

	// 非讲师的普通用户无权删除
	err = svc.DeleteQuiz("user-1", model.Student, quiz.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	require.NoError(t, svc.DeleteQuiz("admin-1", model.Admin, quiz.ID))

	_, err = svc.GetQuizByID(quiz.ID)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
	for _, table := range []interface{}{&model.Question{}, &model.QuizAttempt{}} {
		var count int64
		require.NoError(t, db.Model(table).Count(&count).Error)
		assert.Zero(t, count)
	}

	err = svc.DeleteQuiz("admin-1", model.Admin, quiz.ID)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}
