package repository

import (
	"errors"

	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type UserModuleProgressRepository struct {
	DB *gorm.DB
}

func NewUserModuleProgressRepository(db *gorm.DB) *UserModuleProgressRepository {
	return &UserModuleProgressRepository{DB: db}
}

// Upsert overwrites the cached module aggregate with freshly recomputed
// values. Callers always recount from user_progress rows first; the aggregate
// is never patched in place.
func (r *UserModuleProgressRepository) Upsert(agg *model.UserModuleProgress) error {
	var existing model.UserModuleProgress
	err := r.DB.Where("user_id = ? AND module_id = ?", agg.UserID, agg.ModuleID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.DB.Create(agg).Error
	}
	if err != nil {
		return err
	}

	existing.UserCourseID = agg.UserCourseID
	existing.TotalTasks = agg.TotalTasks
	existing.TasksCompleted = agg.TasksCompleted
	existing.Progress = agg.Progress
	existing.IsCompleted = agg.IsCompleted
	return r.DB.Save(&existing).Error
}

func (r *UserModuleProgressRepository) FindByUserAndModule(userID, moduleID uint) (*model.UserModuleProgress, error) {
	var agg model.UserModuleProgress
	err := r.DB.Where("user_id = ? AND module_id = ?", userID, moduleID).First(&agg).Error
	return &agg, err
}
