package service

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math"
	"time"

	"edulearn_backend/internal/model"
	"edulearn_backend/internal/repository"
	"edulearn_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const dashboardCacheTTL = 2 * time.Minute

var courseColors = []string{"bg-primary-100", "bg-secondary-100", "bg-accent-100"}

type DashboardService struct {
	CourseRepo *repository.CourseRepository
	QuizRepo   *repository.QuizRepository
	redis      *redis.Client
}

func NewDashboardService(courseRepo *repository.CourseRepository, quizRepo *repository.QuizRepository, redisClient *redis.Client) *DashboardService {
	return &DashboardService{
		CourseRepo: courseRepo,
		QuizRepo:   quizRepo,
		redis:      redisClient,
	}
}

type DashboardMetrics struct {
	EnrolledCourses  int     `json:"enrolledCourses"`
	LessonsCompleted int     `json:"lessonsCompleted"`
	QuizzesTaken     int     `json:"quizzesTaken"`
	AverageScore     float64 `json:"averageScore"`
}

type DashboardCourse struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Instructor       string `json:"instructor"`
	CompletedLessons int    `json:"completedLessons"`
	TotalLessons     int    `json:"totalLessons"`
	NextLesson       string `json:"nextLesson"`
	Color            string `json:"color"`
}

type UpcomingQuiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Course      string     `json:"course"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

// GetUserMetrics 首页指标卡片数据，带短 TTL 缓存
func (s *DashboardService) GetUserMetrics(ctx context.Context, userID string) (*DashboardMetrics, error) {
	cacheKey := "dashboard:metrics:" + userID
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var metrics DashboardMetrics
			if err := json.Unmarshal([]byte(cached), &metrics); err == nil {
				return &metrics, nil
			}
		}
	}

	enrollments, err := s.CourseRepo.ListEnrollments(userID)
	if err != nil {
		return nil, err
	}
	records, err := s.CourseRepo.ListProgress(userID)
	if err != nil {
		return nil, err
	}

	metrics := &DashboardMetrics{EnrolledCourses: len(enrollments)}
	scoreSum := 0.0
	for _, p := range records {
		metrics.LessonsCompleted += p.CompletedLessons
		metrics.QuizzesTaken += p.CompletedQuizzes
		scoreSum += p.AverageScore
	}
	if len(records) > 0 {
		metrics.AverageScore = math.Round(scoreSum/float64(len(records))*10) / 10
	}

	if s.redis != nil {
		if data, err := json.Marshal(metrics); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, dashboardCacheTTL).Err(); err != nil {
				logger.Log.Warn("failed to cache dashboard metrics", zap.Error(err))
			}
		}
	}
	return metrics, nil
}

// GetUserCourses 已报名课程及下一课时提示
func (s *DashboardService) GetUserCourses(userID string) ([]DashboardCourse, error) {
	enrollments, err := s.CourseRepo.ListEnrollments(userID)
	if err != nil {
		return nil, err
	}

	courses := make([]DashboardCourse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		course, err := s.CourseRepo.FindByID(enrollment.CourseID)
		if err != nil {
			continue
		}

		completed := 0
		if progress, err := s.CourseRepo.FindProgress(userID, course.ID); err == nil {
			completed = progress.CompletedLessons
		}

		entry := DashboardCourse{
			ID:               course.ID,
			Title:            course.Title,
			CompletedLessons: completed,
			TotalLessons:     len(course.Lessons),
			NextLesson:       nextLessonTitle(course.Lessons, completed),
			Color:            courseColor(course.ID),
		}
		if course.Instructor != nil {
			entry.Instructor = course.Instructor.FirstName + " " + course.Instructor.LastName
		}
		courses = append(courses, entry)
	}
	return courses, nil
}

// GetUpcomingQuizzes 已报名课程中最近的 5 场排期测验
func (s *DashboardService) GetUpcomingQuizzes(userID string) ([]UpcomingQuiz, error) {
	enrollments, err := s.CourseRepo.ListEnrollments(userID)
	if err != nil {
		return nil, err
	}
	courseIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}
	if len(courseIDs) == 0 {
		return []UpcomingQuiz{}, nil
	}

	quizzes, err := s.QuizRepo.ListUpcoming(courseIDs, 5)
	if err != nil {
		return nil, err
	}

	courses, err := s.CourseRepo.FindCoursesByIDs(courseIDs)
	if err != nil {
		return nil, err
	}
	courseTitles := make(map[string]string, len(courses))
	for _, c := range courses {
		courseTitles[c.ID] = c.Title
	}

	upcoming := make([]UpcomingQuiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		upcoming = append(upcoming, UpcomingQuiz{
			ID:          quiz.ID,
			Title:       quiz.Title,
			Course:      courseTitles[quiz.CourseID],
			ScheduledAt: quiz.ScheduledAt,
		})
	}
	return upcoming, nil
}

func (s *DashboardService) GetUserProgress(userID string) ([]model.Progress, error) {
	return s.CourseRepo.ListProgress(userID)
}

// nextLessonTitle 按完成数定位下一课时，已学完时返回提示文案
func nextLessonTitle(lessons []model.Lesson, completed int) string {
	if len(lessons) == 0 {
		return "No lessons"
	}
	if completed >= len(lessons) {
		return "Course Complete"
	}
	return lessons[completed].Title
}

func courseColor(courseID string) string {
	h := fnv.New32a()
	h.Write([]byte(courseID))
	return courseColors[h.Sum32()%uint32(len(courseColors))]
}
