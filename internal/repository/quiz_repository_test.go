package repository

import (
	"testing"

	"edulearn_backend/internal/model"
	"edulearn_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func countRows(t *testing.T, db *gorm.DB, table interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(table).Count(&count).Error)
	return count
}

func TestCreateQuizWithQuestionsRollsBackOnFailure(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewQuizRepository(db)

	quiz := &model.Quiz{Title: "Linear Algebra Quiz", CourseID: "course-1", Difficulty: model.Easy}
	// 第二题预置了重复主键，插入必然失败
	questions := []model.Question{
		{Text: "First", Type: model.ShortAnswer, CorrectAnswer: "vectors"},
		{Text: "Second", Type: model.ShortAnswer, CorrectAnswer: "matrices"},
	}
	questions[0].ID = "question-dup"
	questions[1].ID = "question-dup"

	err := repo.CreateQuizWithQuestions(quiz, questions)
	require.Error(t, err)

	assert.Zero(t, countRows(t, db, &model.Quiz{}))
	assert.Zero(t, countRows(t, db, &model.Question{}))
}

func TestCreateAttemptWithAnswersRollsBackOnFailure(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewQuizRepository(db)

	attempt := &model.QuizAttempt{UserID: "user-1", QuizID: "quiz-1", Score: 1, TotalPoints: 2}
	answers := []model.QuizAnswer{
		{QuestionID: "q-1", Answer: "vectors", IsCorrect: true, Points: 1},
		{QuestionID: "q-2", Answer: "scalars"},
	}
	answers[0].ID = "answer-dup"
	answers[1].ID = "answer-dup"

	err := repo.CreateAttemptWithAnswers(attempt, answers)
	require.Error(t, err)

	assert.Zero(t, countRows(t, db, &model.QuizAttempt{}))
	assert.Zero(t, countRows(t, db, &model.QuizAnswer{}))
}
