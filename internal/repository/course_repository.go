package repository

import (
	"edulearn_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Instructor").
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("`order` asc")
		}).
		First(&course, "id = ?", id).Error
	return &course, err
}

func (r *CourseRepository) List(page, limit int, category string, difficulty string, publishedOnly bool) ([]model.Course, int64, error) {
	query := r.DB.Model(&model.Course{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []model.Course
	offset := (page - 1) * limit
	err := query.Preload("Instructor").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

// Delete 连带删除课程的课时、测验及测验题目
func (r *CourseRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&model.Lesson{}).Error; err != nil {
			return err
		}
		var quizIDs []string
		if err := tx.Model(&model.Quiz{}).Where("course_id = ?", id).Pluck("id", &quizIDs).Error; err != nil {
			return err
		}
		if len(quizIDs) > 0 {
			if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&model.Question{}).Error; err != nil {
				return err
			}
			if err := tx.Where("course_id = ?", id).Delete(&model.Quiz{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Course{}, "id = ?", id).Error
	})
}

func (r *CourseRepository) CreateLesson(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}

func (r *CourseRepository) FindLessonByID(courseID, lessonID string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.Where("id = ? AND course_id = ?", lessonID, courseID).First(&lesson).Error
	return &lesson, err
}

// FindLessonsByIDs 按 ID 集合查询课时，缺失的 ID 直接忽略
func (r *CourseRepository) FindLessonsByIDs(courseID string, lessonIDs []string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.Where("course_id = ? AND id IN ?", courseID, lessonIDs).Find(&lessons).Error
	return lessons, err
}

func (r *CourseRepository) FindCoursesByIDs(courseIDs []string) ([]model.Course, error) {
	var courses []model.Course
	if len(courseIDs) == 0 {
		return courses, nil
	}
	err := r.DB.Where("id IN ?", courseIDs).Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) FindLessonsIn(lessonIDs []string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	if len(lessonIDs) == 0 {
		return lessons, nil
	}
	err := r.DB.Where("id IN ?", lessonIDs).Find(&lessons).Error
	return lessons, err
}

func (r *CourseRepository) ListLessonsByCourse(courseID string, limit int) ([]model.Lesson, error) {
	var lessons []model.Lesson
	query := r.DB.Where("course_id = ?", courseID).Order("`order` asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&lessons).Error
	return lessons, err
}

func (r *CourseRepository) UpdateLesson(lesson *model.Lesson) error {
	return r.DB.Save(lesson).Error
}

func (r *CourseRepository) DeleteLesson(courseID, lessonID string) error {
	return r.DB.Where("id = ? AND course_id = ?", lessonID, courseID).Delete(&model.Lesson{}).Error
}

func (r *CourseRepository) CountLessons(courseID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

func (r *CourseRepository) CountQuizzes(courseID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Quiz{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

func (r *CourseRepository) FindEnrollment(userID, courseID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Enroll 同一事务内创建报名记录和进度记录
func (r *CourseRepository) Enroll(enrollment *model.Enrollment, progress *model.Progress) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(enrollment).Error; err != nil {
			return err
		}
		return tx.Create(progress).Error
	})
}

func (r *CourseRepository) CountEnrollments(courseID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

func (r *CourseRepository) ListEnrollments(userID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Where("user_id = ?", userID).Find(&enrollments).Error
	return enrollments, err
}

func (r *CourseRepository) FindProgress(userID, courseID string) (*model.Progress, error) {
	var progress model.Progress
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *CourseRepository) ListProgress(userID string) ([]model.Progress, error) {
	var records []model.Progress
	err := r.DB.Where("user_id = ?", userID).Find(&records).Error
	return records, err
}

func (r *CourseRepository) SaveProgress(progress *model.Progress) error {
	return r.DB.Save(progress).Error
}

// CompleteLesson 进度自增与完成事件在同一事务提交
func (r *CourseRepository) CompleteLesson(progress *model.Progress, completion *model.LessonCompletion) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		progress.CompletedLessons++
		progress.LastAccessedAt = time.Now()
		if err := tx.Save(progress).Error; err != nil {
			return err
		}
		return tx.Create(completion).Error
	})
}

func (r *CourseRepository) ListLessonCompletions(userID string) ([]model.LessonCompletion, error) {
	var completions []model.LessonCompletion
	err := r.DB.Where("user_id = ?", userID).Order("completed_at desc").Find(&completions).Error
	return completions, err
}
