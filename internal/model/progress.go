package model

import "time"

// UserProgress records a completion fact for one lesson ("task") of an
// enrollment. Upserts are keyed by (user, task) so re-completing is a no-op.
type UserProgress struct {
	BaseModel
	UserID       uint       `gorm:"index:idx_user_task,unique;not null" json:"userId"`
	TaskID       uint       `gorm:"index:idx_user_task,unique;not null" json:"taskId"`
	UserCourseID string     `gorm:"index;type:varchar(36);not null" json:"userCourseId"`
	IsCompleted  bool       `gorm:"default:false" json:"isCompleted"`
	Score        *float64   `json:"score"`
	CompletedAt  *time.Time `json:"completedAt"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// UserModuleProgress is a materialized per-module aggregate. It is overwritten
// from a full recount on every completion, so it must always equal the live
// count of completed user_progress rows for the module.
type UserModuleProgress struct {
	BaseModel
	UserID         uint    `gorm:"index:idx_user_module,unique;not null" json:"userId"`
	ModuleID       uint    `gorm:"index:idx_user_module,unique;not null" json:"moduleId"`
	UserCourseID   string  `gorm:"index;type:varchar(36);not null" json:"userCourseId"`
	TotalTasks     int     `gorm:"default:0" json:"totalTasks"`
	TasksCompleted int     `gorm:"default:0" json:"tasksCompleted"`
	Progress       float64 `gorm:"default:0" json:"progress"`
	IsCompleted    bool    `gorm:"default:false" json:"isCompleted"`
}

func (UserModuleProgress) TableName() string {
	return "user_module_progress"
}

// UnlockedModule marks a module the learner explicitly unlocked past the
// sequential default. Modules after the current one stay locked until a row
// exists here.
type UnlockedModule struct {
	BaseModel
	UserID   uint   `gorm:"index:idx_user_course_module,unique;not null" json:"userId"`
	CourseID string `gorm:"index:idx_user_course_module,unique;type:varchar(36);not null" json:"courseId"`
	ModuleID uint   `gorm:"index:idx_user_course_module,unique;not null" json:"moduleId"`
}

func (UnlockedModule) TableName() string {
	return "unlocked_modules"
}
