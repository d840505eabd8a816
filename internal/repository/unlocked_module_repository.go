package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type UnlockedModuleRepository struct {
	DB *gorm.DB
}

func NewUnlockedModuleRepository(db *gorm.DB) *UnlockedModuleRepository {
	return &UnlockedModuleRepository{DB: db}
}

func (r *UnlockedModuleRepository) ListByUserAndCourse(userID uint, courseID string) ([]model.UnlockedModule, error) {
	var rows []model.UnlockedModule
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).Find(&rows).Error
	return rows, err
}

// Record is idempotent: unlocking an already-unlocked module keeps one row.
func (r *UnlockedModuleRepository) Record(userID uint, courseID string, moduleID uint) error {
	var row model.UnlockedModule
	return r.DB.Where(model.UnlockedModule{
		UserID:   userID,
		CourseID: courseID,
		ModuleID: moduleID,
	}).FirstOrCreate(&row).Error
}
