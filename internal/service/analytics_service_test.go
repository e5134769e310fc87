package service

import (
	"testing"
	"time"

	"edulearn_backend/internal/model"
	"edulearn_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAnalyticsTestService(t *testing.T) (*AnalyticsService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewAnalyticsService(repository.NewCourseRepository(db)), db
}

func TestCompletedLessonsSummaryFromEvents(t *testing.T) {
	svc, db := newAnalyticsTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	score1, score2 := 80.0, 90.0
	completions := []model.LessonCompletion{
		{UserID: "user-1", CourseID: course.ID, LessonID: lessons[0].ID, TimeSpentMinutes: 25, Score: &score1, CompletedAt: time.Now()},
		{UserID: "user-1", CourseID: course.ID, LessonID: lessons[1].ID, TimeSpentMinutes: 35, Score: &score2, CompletedAt: time.Now()},
	}
	for i := range completions {
		require.NoError(t, db.Create(&completions[i]).Error)
	}

	summary, err := svc.CompletedLessonsSummary("user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalCompleted)
	assert.Equal(t, 85.0, summary.AverageScore)
	assert.Equal(t, "1h 0m", summary.TotalTime)
}

func TestCompletedLessonsSummaryTimeHeuristic(t *testing.T) {
	svc, db := newAnalyticsTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	for _, lesson := range lessons {
		require.NoError(t, db.Create(&model.LessonCompletion{
			UserID: "user-1", CourseID: course.ID, LessonID: lesson.ID, CompletedAt: time.Now(),
		}).Error)
	}

	summary, err := svc.CompletedLessonsSummary("user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalCompleted)
	assert.Equal(t, "0h 36m", summary.TotalTime)
}

func TestCompletedLessonsSummaryProgressFallback(t *testing.T) {
	svc, db := newAnalyticsTestService(t)
	course, _ := seedCourseWithLessons(t, db)

	require.NoError(t, db.Create(&model.Progress{
		UserID:           "user-1",
		CourseID:         course.ID,
		CompletedLessons: 3,
		TotalLessons:     5,
		AverageScore:     72.4,
		LastAccessedAt:   time.Now(),
	}).Error)

	summary, err := svc.CompletedLessonsSummary("user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalCompleted)
	assert.Equal(t, 72.4, summary.AverageScore)
	assert.Equal(t, "0h 54m", summary.TotalTime)
}

func TestCompletedLessonsListFromEvents(t *testing.T) {
	svc, db := newAnalyticsTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	score := 88.0
	require.NoError(t, db.Create(&model.LessonCompletion{
		UserID: "user-1", CourseID: course.ID, LessonID: lessons[0].ID,
		TimeSpentMinutes: 20, Score: &score, CompletedAt: time.Now(),
	}).Error)

	items, err := svc.CompletedLessonsList("user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, lessons[0].ID, items[0].ID)
	assert.Equal(t, lessons[0].Title, items[0].Title)
	assert.Equal(t, course.Title, items[0].CourseTitle)
	assert.Equal(t, "20m", items[0].TimeSpent)
	require.NotNil(t, items[0].QuizScore)
	assert.Equal(t, 88, *items[0].QuizScore)
}

func TestCompletedLessonsListProgressFallback(t *testing.T) {
	svc, db := newAnalyticsTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	require.NoError(t, db.Create(&model.Progress{
		UserID:           "user-1",
		CourseID:         course.ID,
		CompletedLessons: 1,
		TotalLessons:     2,
		AverageScore:     75.0,
		LastAccessedAt:   time.Now(),
	}).Error)

	items, err := svc.CompletedLessonsList("user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, lessons[0].ID, items[0].ID)
	require.NotNil(t, items[0].QuizScore)
	assert.Equal(t, 75, *items[0].QuizScore)
}
