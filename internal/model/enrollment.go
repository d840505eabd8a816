package model

import "time"

// UserCourse is a learner's enrollment in a course: one row per (user, course),
// carrying the resume pointer and the aggregate progress fraction. Progress is
// always recomputed from user_progress rows, never patched incrementally.
type UserCourse struct {
	UUIDBase
	UserID   uint   `gorm:"index:idx_user_course,unique;not null" json:"userId"`
	CourseID string `gorm:"index:idx_user_course,unique;type:varchar(36);not null" json:"courseId"`

	CurrentModuleID *uint      `gorm:"index" json:"currentModuleId"`
	CurrentTaskID   *uint      `gorm:"index" json:"currentTaskId"`
	Progress        float64    `gorm:"default:0" json:"progress"`
	IsCompleted     bool       `gorm:"default:false" json:"isCompleted"`
	CompletedAt     *time.Time `json:"completedAt"`
	LastAccessedAt  time.Time  `json:"lastAccessedAt"`
	EnrolledAt      time.Time  `json:"enrolledAt"`
}

func (UserCourse) TableName() string {
	return "user_courses"
}
