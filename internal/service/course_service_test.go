package service

import (
	"testing"

	"edulearn_backend/internal/model"
	"edulearn_backend/internal/repository"
	"edulearn_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCourseTestService(t *testing.T) (*CourseService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewCourseService(repository.NewCourseRepository(db)), db
}

func TestEnrollIsIdempotent(t *testing.T) {
	svc, db := newCourseTestService(t)
	course, _ := seedCourseWithLessons(t, db)

	require.NoError(t, svc.EnrollUser("user-1", course.ID))
	require.NoError(t, svc.EnrollUser("user-1", course.ID))

	var count int64
	require.NoError(t, db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", "user-1", course.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// 报名时同步建立进度记录
	progress, err := svc.GetUserProgress("user-1", course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.TotalLessons)
	assert.Zero(t, progress.CompletedLessons)
}

func TestEnrollMissingCourse(t *testing.T) {
	svc, _ := newCourseTestService(t)
	assert.ErrorIs(t, svc.EnrollUser("user-1", "missing"), util.ErrCourseNotFound)
}

func TestProgressRequiresEnrollment(t *testing.T) {
	svc, db := newCourseTestService(t)
	course, _ := seedCourseWithLessons(t, db)

	_, err := svc.GetUserProgress("stranger", course.ID)
	assert.ErrorIs(t, err, util.ErrNotEnrolled)
}

func TestMarkLessonComplete(t *testing.T) {
	svc, db := newCourseTestService(t)
	course, lessons := seedCourseWithLessons(t, db)

	require.NoError(t, svc.EnrollUser("user-1", course.ID))

	score := 92.5
	require.NoError(t, svc.MarkLessonComplete("user-1", course.ID, lessons[0].ID, 25, &score))

	progress, err := svc.GetUserProgress("user-1", course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.CompletedLessons)

	var completion model.LessonCompletion
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", "user-1", lessons[0].ID).First(&completion).Error)
	assert.Equal(t, 25, completion.TimeSpentMinutes)
	require.NotNil(t, completion.Score)
	assert.Equal(t, 92.5, *completion.Score)
}

func TestMarkLessonCompleteUnknownLesson(t *testing.T) {
	svc, db := newCourseTestService(t)
	course, _ := seedCourseWithLessons(t, db)

	require.NoError(t, svc.EnrollUser("user-1", course.ID))
	assert.ErrorIs(t, svc.MarkLessonComplete("user-1", course.ID, "missing", 0, nil), util.ErrLessonNotFound)
}

func TestListCoursesFiltersUnpublished(t *testing.T) {
	svc, db := newCourseTestService(t)
	course, _ := seedCourseWithLessons(t, db)

	draft := &model.Course{
		Title:        "Draft",
		Description:  "not ready",
		InstructorID: course.InstructorID,
		Category:     "ai",
		IsPublished:  false,
	}
	require.NoError(t, db.Create(draft).Error)

	result, err := svc.ListCourses(1, 10, "", "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Total)

	courses, ok := result.Items.([]model.Course)
	require.True(t, ok)
	require.Len(t, courses, 1)
	assert.Equal(t, course.ID, courses[0].ID)
}

func TestCourseUpdatePermission(t *testing.T) {
	svc, db := newCourseTestService(t)
	course, _ := seedCourseWithLessons(t, db)

	update := &model.Course{Title: "Renamed"}
	update.ID = course.ID

	err := svc.UpdateCourse("someone-else", model.Student, update)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	// 管理员可以越过属主检查
	require.NoError(t, svc.UpdateCourse("someone-else", model.Admin, update))

	reloaded, err := svc.GetCourseByID(course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", reloaded.Title)
}

func TestCourseDetailIncludesEnrolledCount(t *testing.T) {
	svc, db := newCourseTestService(t)
	course, _ := seedCourseWithLessons(t, db)

	require.NoError(t, svc.EnrollUser("user-1", course.ID))
	require.NoError(t, svc.EnrollUser("user-2", course.ID))

	detail, err := svc.GetCourseDetail(course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, detail.EnrolledCount)

	_, err = svc.GetCourseDetail("missing")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}
