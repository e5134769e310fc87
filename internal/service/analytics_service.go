package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"edulearn_backend/internal/model"
	"edulearn_backend/internal/repository"
)

// 未记录学习时长时按每课时 18 分钟估算
const assumedMinutesPerLesson = 18

type AnalyticsService struct {
	CourseRepo *repository.CourseRepository
}

func NewAnalyticsService(courseRepo *repository.CourseRepository) *AnalyticsService {
	return &AnalyticsService{CourseRepo: courseRepo}
}

type LessonsSummary struct {
	TotalCompleted int     `json:"totalCompleted"`
	AverageScore   float64 `json:"averageScore"`
	TotalTime      string  `json:"totalTime"`
}

type CompletedLessonEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CourseTitle string `json:"courseTitle"`
	CompletedAt string `json:"completedAt"`
	TimeSpent   string `json:"timeSpent"`
	QuizScore   *int   `json:"quizScore"`
}

// CompletedLessonsSummary 优先使用课时完成事件，无事件时回退到进度快照
func (s *AnalyticsService) CompletedLessonsSummary(userID string) (*LessonsSummary, error) {
	completions, err := s.CourseRepo.ListLessonCompletions(userID)
	if err != nil {
		return nil, err
	}

	totalCompleted := len(completions)
	totalMinutes := 0
	scoreSum := 0.0
	scoreCount := 0
	for _, c := range completions {
		totalMinutes += c.TimeSpentMinutes
		if c.Score != nil {
			scoreSum += *c.Score
			scoreCount++
		}
	}

	avgScore := 0.0
	if scoreCount > 0 {
		avgScore = scoreSum / float64(scoreCount)
	}

	if totalCompleted == 0 || scoreCount == 0 {
		records, err := s.CourseRepo.ListProgress(userID)
		if err != nil {
			return nil, err
		}
		if totalCompleted == 0 {
			for _, p := range records {
				totalCompleted += p.CompletedLessons
			}
		}
		if scoreCount == 0 && len(records) > 0 {
			sum := 0.0
			for _, p := range records {
				sum += p.AverageScore
			}
			avgScore = sum / float64(len(records))
		}
	}

	if totalMinutes == 0 && totalCompleted > 0 {
		totalMinutes = totalCompleted * assumedMinutesPerLesson
	}

	return &LessonsSummary{
		TotalCompleted: totalCompleted,
		AverageScore:   math.Round(avgScore*10) / 10,
		TotalTime:      fmt.Sprintf("%dh %dm", totalMinutes/60, totalMinutes%60),
	}, nil
}

// CompletedLessonsList 返回按完成时间倒序的课时列表
func (s *AnalyticsService) CompletedLessonsList(userID string) ([]CompletedLessonEntry, error) {
	completions, err := s.CourseRepo.ListLessonCompletions(userID)
	if err != nil {
		return nil, err
	}

	if len(completions) > 0 {
		return s.entriesFromCompletions(completions)
	}
	return s.entriesFromProgress(userID)
}

func (s *AnalyticsService) entriesFromCompletions(completions []model.LessonCompletion) ([]CompletedLessonEntry, error) {
	courseIDs := make([]string, 0, len(completions))
	lessonIDs := make([]string, 0, len(completions))
	seenCourse := make(map[string]bool)
	seenLesson := make(map[string]bool)
	for _, c := range completions {
		if !seenCourse[c.CourseID] {
			seenCourse[c.CourseID] = true
			courseIDs = append(courseIDs, c.CourseID)
		}
		if !seenLesson[c.LessonID] {
			seenLesson[c.LessonID] = true
			lessonIDs = append(lessonIDs, c.LessonID)
		}
	}

	courses, err := s.CourseRepo.FindCoursesByIDs(courseIDs)
	if err != nil {
		return nil, err
	}
	lessons, err := s.CourseRepo.FindLessonsIn(lessonIDs)
	if err != nil {
		return nil, err
	}

	courseTitles := make(map[string]string, len(courses))
	for _, c := range courses {
		courseTitles[c.ID] = c.Title
	}
	lessonTitles := make(map[string]string, len(lessons))
	for _, l := range lessons {
		lessonTitles[l.ID] = l.Title
	}

	entries := make([]CompletedLessonEntry, 0, len(completions))
	for _, c := range completions {
		entry := CompletedLessonEntry{
			ID:          c.LessonID,
			Title:       orDefault(lessonTitles[c.LessonID], "Lesson"),
			CourseTitle: orDefault(courseTitles[c.CourseID], "Course"),
			CompletedAt: c.CompletedAt.Format(time.RFC3339),
			TimeSpent:   "-",
		}
		if c.TimeSpentMinutes > 0 {
			entry.TimeSpent = fmt.Sprintf("%dm", c.TimeSpentMinutes)
		}
		if c.Score != nil {
			rounded := int(math.Round(*c.Score))
			entry.QuizScore = &rounded
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// entriesFromProgress 没有完成事件时从进度快照推导已完成课时
func (s *AnalyticsService) entriesFromProgress(userID string) ([]CompletedLessonEntry, error) {
	records, err := s.CourseRepo.ListProgress(userID)
	if err != nil {
		return nil, err
	}

	entries := make([]CompletedLessonEntry, 0)
	for _, progress := range records {
		if progress.CompletedLessons <= 0 {
			continue
		}
		course, err := s.CourseRepo.FindByID(progress.CourseID)
		if err != nil {
			continue
		}
		lessons, err := s.CourseRepo.ListLessonsByCourse(progress.CourseID, progress.CompletedLessons)
		if err != nil {
			return nil, err
		}

		score := int(math.Round(progress.AverageScore))
		for _, lesson := range lessons {
			duration := lesson.Duration
			if duration == 0 {
				duration = 15
			}
			if duration < 10 {
				duration = 10
			}
			quizScore := score
			entries = append(entries, CompletedLessonEntry{
				ID:          lesson.ID,
				Title:       lesson.Title,
				CourseTitle: course.Title,
				CompletedAt: progress.UpdatedAt.Format(time.RFC3339),
				TimeSpent:   fmt.Sprintf("%dm", duration),
				QuizScore:   &quizScore,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CompletedAt > entries[j].CompletedAt
	})
	return entries, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
