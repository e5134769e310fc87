package service

import (
	"errors"
	"time"

	"edulearn_backend/internal/model"
	"edulearn_backend/internal/repository"
	"edulearn_backend/internal/util"

	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo *repository.CourseRepository
}

func NewCourseService(courseRepo *repository.CourseRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo}
}

func (s *CourseService) ListCourses(page, limit int, category, difficulty string) (*util.PageResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	courses, total, err := s.CourseRepo.List(page, limit, category, difficulty, true)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &util.PageResponse{
		Items:      courses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (s *CourseService) GetCourseByID(courseID string) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// GetCourseDetail 详情视图附带报名人数
func (s *CourseService) GetCourseDetail(courseID string) (*model.Course, error) {
	course, err := s.GetCourseByID(courseID)
	if err != nil {
		return nil, err
	}

	count, err := s.CourseRepo.CountEnrollments(courseID)
	if err != nil {
		return nil, err
	}
	course.EnrolledCount = count
	return course, nil
}

// EnrollUser 重复报名视为成功，不产生新记录
func (s *CourseService) EnrollUser(userID, courseID string) error {
	course, err := s.GetCourseByID(courseID)
	if err != nil {
		return err
	}

	if _, err := s.CourseRepo.FindEnrollment(userID, courseID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	totalLessons, err := s.CourseRepo.CountLessons(course.ID)
	if err != nil {
		return err
	}
	totalQuizzes, err := s.CourseRepo.CountQuizzes(course.ID)
	if err != nil {
		return err
	}

	enrollment := &model.Enrollment{
		UserID:     userID,
		CourseID:   course.ID,
		EnrolledAt: time.Now(),
	}
	progress := &model.Progress{
		UserID:         userID,
		CourseID:       course.ID,
		TotalLessons:   int(totalLessons),
		TotalQuizzes:   int(totalQuizzes),
		LastAccessedAt: time.Now(),
	}
	return s.CourseRepo.Enroll(enrollment, progress)
}

func (s *CourseService) GetUserProgress(userID, courseID string) (*model.Progress, error) {
	progress, err := s.CourseRepo.FindProgress(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotEnrolled
		}
		return nil, err
	}
	return progress, nil
}

// MarkLessonComplete 需要先报名；课时完成事件与进度更新一并提交
func (s *CourseService) MarkLessonComplete(userID, courseID, lessonID string, timeSpentMinutes int, score *float64) error {
	if _, err := s.CourseRepo.FindLessonByID(courseID, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrLessonNotFound
		}
		return err
	}

	progress, err := s.GetUserProgress(userID, courseID)
	if err != nil {
		return err
	}

	completion := &model.LessonCompletion{
		UserID:           userID,
		CourseID:         courseID,
		LessonID:         lessonID,
		TimeSpentMinutes: timeSpentMinutes,
		Score:            score,
		CompletedAt:      time.Now(),
	}
	return s.CourseRepo.CompleteLesson(progress, completion)
}

func (s *CourseService) CreateCourse(instructorID string, course *model.Course) error {
	course.InstructorID = instructorID
	return s.CourseRepo.Create(course)
}

// UpdateCourse 仅课程创建者或管理员可修改
func (s *CourseService) UpdateCourse(userID string, role model.UserRole, course *model.Course) error {
	existing, err := s.GetCourseByID(course.ID)
	if err != nil {
		return err
	}
	if existing.InstructorID != userID && role != model.Admin {
		return util.ErrPermissionDenied
	}

	if course.Title != "" {
		existing.Title = course.Title
	}
	if course.Description != "" {
		existing.Description = course.Description
	}
	if course.Thumbnail != "" {
		existing.Thumbnail = course.Thumbnail
	}
	if course.Category != "" {
		existing.Category = course.Category
	}
	if course.Difficulty != "" {
		existing.Difficulty = course.Difficulty
	}
	if course.Duration > 0 {
		existing.Duration = course.Duration
	}
	existing.IsPublished = course.IsPublished

	return s.CourseRepo.Update(existing)
}

func (s *CourseService) DeleteCourse(userID string, role model.UserRole, courseID string) error {
	existing, err := s.GetCourseByID(courseID)
	if err != nil {
		return err
	}
	if existing.InstructorID != userID && role != model.Admin {
		return util.ErrPermissionDenied
	}
	return s.CourseRepo.Delete(courseID)
}

func (s *CourseService) CreateLesson(userID string, role model.UserRole, courseID string, lesson *model.Lesson) error {
	course, err := s.GetCourseByID(courseID)
	if err != nil {
		return err
	}
	if course.InstructorID != userID && role != model.Admin {
		return util.ErrPermissionDenied
	}
	lesson.CourseID = courseID
	return s.CourseRepo.CreateLesson(lesson)
}

func (s *CourseService) UpdateLesson(userID string, role model.UserRole, courseID, lessonID string, update *model.Lesson) error {
	course, err := s.GetCourseByID(courseID)
	if err != nil {
		return err
	}
	if course.InstructorID != userID && role != model.Admin {
		return util.ErrPermissionDenied
	}

	lesson, err := s.CourseRepo.FindLessonByID(courseID, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrLessonNotFound
		}
		return err
	}

	if update.Title != "" {
		lesson.Title = update.Title
	}
	if update.Description != "" {
		lesson.Description = update.Description
	}
	if update.Content != "" {
		lesson.Content = update.Content
	}
	if update.VideoURL != "" {
		lesson.VideoURL = update.VideoURL
	}
	if update.Duration > 0 {
		lesson.Duration = update.Duration
	}
	if update.Order > 0 {
		lesson.Order = update.Order
	}
	return s.CourseRepo.UpdateLesson(lesson)
}

func (s *CourseService) DeleteLesson(userID string, role model.UserRole, courseID, lessonID string) error {
	course, err := s.GetCourseByID(courseID)
	if err != nil {
		return err
	}
	if course.InstructorID != userID && role != model.Admin {
		return util.ErrPermissionDenied
	}
	return s.CourseRepo.DeleteLesson(courseID, lessonID)
}
