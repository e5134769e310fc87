package model

type CourseDifficulty string

const (
	Beginner     CourseDifficulty = "beginner"
	Intermediate CourseDifficulty = "intermediate"
	Advanced     CourseDifficulty = "advanced"
)

// swagger:model Course
type Course struct {
	UUIDBase
	Title        string           `gorm:"size:200;not null" json:"title"`
	Description  string           `gorm:"type:text" json:"description"`
	InstructorID string           `gorm:"index;type:varchar(36);not null" json:"instructorId"`
	Instructor   *User            `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Thumbnail    string           `gorm:"size:255" json:"thumbnail"`
	Duration     int              `gorm:"default:0" json:"duration"` // 分钟
	Difficulty   CourseDifficulty `gorm:"size:20;default:'beginner'" json:"difficulty"`
	Category     string           `gorm:"size:100" json:"category"`
	IsPublished  bool             `gorm:"default:false" json:"isPublished"`
	Lessons      []Lesson         `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`

	// EnrolledCount 仅详情接口填充，不落库
	EnrolledCount int64 `gorm:"-" json:"enrolledCount"`
}

func (Course) TableName() string {
	return "courses"
}
