package model

import "time"

// swagger:model Enrollment
type Enrollment struct {
	UUIDBase
	UserID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_course_enrollment" json:"userId"`
	CourseID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_course_enrollment" json:"courseId"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolledAt"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// Progress 记录用户在某课程的学习进度，(user, course) 唯一
// swagger:model Progress
type Progress struct {
	UUIDBase
	UserID           string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_course_progress" json:"userId"`
	CourseID         string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_course_progress" json:"courseId"`
	CompletedLessons int       `gorm:"default:0" json:"completedLessons"`
	TotalLessons     int       `gorm:"default:0" json:"totalLessons"`
	CompletedQuizzes int       `gorm:"default:0" json:"completedQuizzes"`
	TotalQuizzes     int       `gorm:"default:0" json:"totalQuizzes"`
	AverageScore     float64   `gorm:"default:0" json:"averageScore"`
	LastAccessedAt   time.Time `json:"lastAccessedAt"`
}

func (Progress) TableName() string {
	return "progress"
}

// LessonCompletion 课时完成事件，供分析接口聚合
type LessonCompletion struct {
	UUIDBase
	UserID           string    `gorm:"index;type:varchar(36);not null" json:"userId"`
	CourseID         string    `gorm:"index;type:varchar(36);not null" json:"courseId"`
	LessonID         string    `gorm:"index;type:varchar(36);not null" json:"lessonId"`
	TimeSpentMinutes int       `gorm:"default:0" json:"timeSpentMinutes"`
	Score            *float64  `json:"score,omitempty"` // 关联测验得分，可为空
	CompletedAt      time.Time `json:"completedAt"`
}

func (LessonCompletion) TableName() string {
	return "lesson_completions"
}
