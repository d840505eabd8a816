package model

type LessonType string

const (
	LessonVideo    LessonType = "video"
	LessonText     LessonType = "text"
	LessonExercise LessonType = "exercise"
)

// Course is the root of the curriculum tree. Children are owned by parent id
// fields and loaded with ordered preloads; there are no live back-pointers.
type Course struct {
	UUIDBase
	Title       string   `gorm:"size:255;not null" json:"title"`
	Slug        string   `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description string   `gorm:"type:text" json:"description"`
	Modules     []Module `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// Modules are ordered by creation (id asc) within a course.
type Module struct {
	BaseModel
	CourseID string  `gorm:"index;type:varchar(36);not null" json:"courseId"`
	Title    string  `gorm:"size:255;not null" json:"title"`
	Slug     string  `gorm:"size:255;not null" json:"slug"`
	Groups   []Group `gorm:"foreignKey:ModuleID" json:"groups,omitempty"`
}

func (Module) TableName() string {
	return "modules"
}

// Groups are ordered by creation (id asc) within a module.
type Group struct {
	BaseModel
	ModuleID uint     `gorm:"index;not null" json:"moduleId"`
	Title    string   `gorm:"size:255;not null" json:"title"`
	Lessons  []Lesson `gorm:"foreignKey:GroupID" json:"lessons,omitempty"`
}

func (Group) TableName() string {
	return "lesson_groups"
}

type Lesson struct {
	BaseModel
	GroupID       uint       `gorm:"index;not null" json:"groupId"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Slug          string     `gorm:"size:255;not null" json:"slug"`
	Description   string     `gorm:"type:text" json:"description"`
	Type          LessonType `gorm:"type:varchar(20);default:'video'" json:"type"`
	VideoURL      *string    `gorm:"size:512" json:"videoUrl"`
	VideoDuration *string    `gorm:"size:20" json:"videoDuration"`
	// Order is the explicit position of the lesson within its group.
	Order int `gorm:"default:0" json:"order"`
}

func (Lesson) TableName() string {
	return "lessons"
}
