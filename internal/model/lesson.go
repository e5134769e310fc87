package model

// swagger:model Lesson
type Lesson struct {
	UUIDBase
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Content     string `gorm:"type:text" json:"content"`
	VideoURL    string `gorm:"size:255" json:"videoUrl"`
	Duration    int    `gorm:"default:0" json:"duration"` // 分钟
	Order       int    `gorm:"default:0" json:"order"`
	CourseID    string `gorm:"index;type:varchar(36);not null" json:"courseId"`
}

func (Lesson) TableName() string {
	return "lessons"
}
