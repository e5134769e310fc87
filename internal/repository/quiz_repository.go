package repository

import (
	"time"

	"edulearn_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// CreateQuizWithQuestions 题目与测验同一事务落库，任一失败整体回滚
func (r *QuizRepository) CreateQuizWithQuestions(quiz *model.Quiz, questions []model.Question) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quiz).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].QuizID = quiz.ID
			questions[i].Order = i
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *QuizRepository) FindByID(id string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("`order` asc")
	}).First(&quiz, "id = ?", id).Error
	return &quiz, err
}

func (r *QuizRepository) ListQuestions(quizID string) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("quiz_id = ?", quizID).Order("`order` asc").Find(&questions).Error
	return questions, err
}

func (r *QuizRepository) FindQuestionByID(quizID, questionID string) (*model.Question, error) {
	var question model.Question
	err := r.DB.Where("id = ? AND quiz_id = ?", questionID, quizID).First(&question).Error
	return &question, err
}

// Delete 连带删除题目、答题记录和答案
func (r *QuizRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		var attemptIDs []string
		if err := tx.Model(&model.QuizAttempt{}).Where("quiz_id = ?", id).Pluck("id", &attemptIDs).Error; err != nil {
			return err
		}
		if len(attemptIDs) > 0 {
			if err := tx.Where("attempt_id IN ?", attemptIDs).Delete(&model.QuizAnswer{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizAttempt{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Quiz{}, "id = ?", id).Error
	})
}

// CreateAttemptWithAnswers 答题记录与逐题答案原子落库
func (r *QuizRepository) CreateAttemptWithAnswers(attempt *model.QuizAttempt, answers []model.QuizAnswer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		for i := range answers {
			answers[i].AttemptID = attempt.ID
			if err := tx.Create(&answers[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *QuizRepository) ListAttempts(userID, quizID string) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Preload("Answers").
		Order("created_at desc").
		Find(&attempts).Error
	return attempts, err
}

// FindAttemptByID 仅允许本人读取自己的答题记录
func (r *QuizRepository) FindAttemptByID(userID, attemptID string) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.Where("id = ? AND user_id = ?", attemptID, userID).
		Preload("Answers").
		First(&attempt).Error
	return &attempt, err
}

func (r *QuizRepository) ListUserAttempts(userID string) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("user_id = ?", userID).
		Preload("Quiz").
		Order("created_at desc").
		Find(&attempts).Error
	return attempts, err
}

func (r *QuizRepository) ListUpcoming(courseIDs []string, limit int) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("course_id IN ? AND scheduled_at > ?", courseIDs, time.Now()).
		Order("scheduled_at asc").
		Limit(limit).
		Find(&quizzes).Error
	return quizzes, err
}
