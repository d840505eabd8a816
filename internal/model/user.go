package model

type UserRole string

const (
	Student    UserRole = "student"
	Instructor UserRole = "instructor"
	Admin      UserRole = "admin"
)

type User struct {
	BaseModel
	Name  string   `gorm:"size:255;not null" json:"name"`
	Email string   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role  UserRole `gorm:"type:varchar(20);default:'student'" json:"role"`

	// Course the learner is currently working through. Consulted by the
	// continue endpoint when no course id is given.
	ActiveCourseID *string `gorm:"type:varchar(36)" json:"activeCourseId"`
}

func (User) TableName() string {
	return "users"
}
