package service

import (
	"context"
	"testing"
	"time"

	"edulearn_backend/internal/model"
	"edulearn_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDashboardTestService(t *testing.T) (*DashboardService, *CourseService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	courseRepo := repository.NewCourseRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	return NewDashboardService(courseRepo, quizRepo, nil), NewCourseService(courseRepo), db
}

func TestDashboardMetrics(t *testing.T) {
	svc, courseSvc, db := newDashboardTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	require.NoError(t, courseSvc.EnrollUser("user-1", course.ID))
	require.NoError(t, courseSvc.MarkLessonComplete("user-1", course.ID, lessons[0].ID, 10, nil))

	metrics, err := svc.GetUserMetrics(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.EnrolledCourses)
	assert.Equal(t, 1, metrics.LessonsCompleted)
}

func TestDashboardCoursesShowNextLesson(t *testing.T) {
	svc, courseSvc, db := newDashboardTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	require.NoError(t, courseSvc.EnrollUser("user-1", course.ID))
	require.NoError(t, courseSvc.MarkLessonComplete("user-1", course.ID, lessons[0].ID, 10, nil))

	courses, err := svc.GetUserCourses("user-1")
	require.NoError(t, err)
	require.Len(t, courses, 1)

	entry := courses[0]
	assert.Equal(t, course.Title, entry.Title)
	assert.Equal(t, "Ada Lovelace", entry.Instructor)
	assert.Equal(t, 1, entry.CompletedLessons)
	assert.Equal(t, 2, entry.TotalLessons)
	assert.Equal(t, lessons[1].Title, entry.NextLesson)
	assert.NotEmpty(t, entry.Color)
}

func TestNextLessonTitle(t *testing.T) {
	lessons := []model.Lesson{{Title: "One"}, {Title: "Two"}}

	assert.Equal(t, "No lessons", nextLessonTitle(nil, 0))
	assert.Equal(t, "One", nextLessonTitle(lessons, 0))
	assert.Equal(t, "Two", nextLessonTitle(lessons, 1))
	assert.Equal(t, "Course Complete", nextLessonTitle(lessons, 2))
}

func TestUpcomingQuizzes(t *testing.T) {
	svc, courseSvc, db := newDashboardTestService(t)
	course, _ := seedCourseWithLessons(t, db)

	require.NoError(t, courseSvc.EnrollUser("user-1", course.ID))

	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)
	require.NoError(t, db.Create(&model.Quiz{Title: "Upcoming", CourseID: course.ID, ScheduledAt: &future}).Error)
	require.NoError(t, db.Create(&model.Quiz{Title: "Past", CourseID: course.ID, ScheduledAt: &past}).Error)

	quizzes, err := svc.GetUpcomingQuizzes("user-1")
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, "Upcoming", quizzes[0].Title)
	assert.Equal(t, course.Title, quizzes[0].Course)
}
