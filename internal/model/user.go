package model

type UserRole string

const (
	Student    UserRole = "student"
	Instructor UserRole = "instructor"
	Admin      UserRole = "admin"
)

// swagger:model User
type User struct {
	UUIDBase
	Email     string   `gorm:"size:120;unique;not null;index" json:"email"`
	Password  string   `gorm:"size:128;not null" json:"-"`
	FirstName string   `gorm:"size:50;not null" json:"firstName"`
	LastName  string   `gorm:"size:50;not null" json:"lastName"`
	Role      UserRole `gorm:"size:20;default:'student'" json:"role"`
	Avatar    string   `gorm:"size:255" json:"avatar"`
	IsActive  bool     `gorm:"default:true" json:"isActive"`
}

func (User) TableName() string {
	return "users"
}
