package repository

import (
	"errors"
	"time"

	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type UserProgressRepository struct {
	DB *gorm.DB
}

func NewUserProgressRepository(db *gorm.DB) *UserProgressRepository {
	return &UserProgressRepository{DB: db}
}

// Upsert marks a lesson completed for a user, creating or updating the
// (user, task) row. Completing an already-completed lesson is a no-op on
// CompletedAt so the original completion time is preserved.
func (r *UserProgressRepository) Upsert(userID, taskID uint, userCourseID string, score *float64) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := r.DB.Where("user_id = ? AND task_id = ?", userID, taskID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := time.Now()
		progress = model.UserProgress{
			UserID:       userID,
			TaskID:       taskID,
			UserCourseID: userCourseID,
			IsCompleted:  true,
			Score:        score,
			CompletedAt:  &now,
		}
		if err := r.DB.Create(&progress).Error; err != nil {
			return nil, err
		}
		return &progress, nil
	}
	if err != nil {
		return nil, err
	}

	if !progress.IsCompleted {
		now := time.Now()
		progress.IsCompleted = true
		progress.CompletedAt = &now
	}
	if score != nil {
		progress.Score = score
	}
	if err := r.DB.Save(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *UserProgressRepository) FindByUserAndTask(userID, taskID uint) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := r.DB.Where("user_id = ? AND task_id = ?", userID, taskID).First(&progress).Error
	return &progress, err
}

func (r *UserProgressRepository) ListByUserCourse(userCourseID string) ([]model.UserProgress, error) {
	var rows []model.UserProgress
	err := r.DB.Where("user_course_id = ?", userCourseID).Find(&rows).Error
	return rows, err
}

func (r *UserProgressRepository) CountCompletedInModule(userID, moduleID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserProgress{}).
		Joins("JOIN lessons ON lessons.id = user_progress.task_id").
		Joins("JOIN lesson_groups ON lesson_groups.id = lessons.group_id").
		Where("user_progress.user_id = ? AND user_progress.is_completed = ? AND lesson_groups.module_id = ?",
			userID, true, moduleID).
		Count(&count).Error
	return count, err
}

func (r *UserProgressRepository) CountCompletedInCourse(userID uint, courseID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserProgress{}).
		Joins("JOIN lessons ON lessons.id = user_progress.task_id").
		Joins("JOIN lesson_groups ON lesson_groups.id = lessons.group_id").
		Joins("JOIN modules ON modules.id = lesson_groups.module_id").
		Where("user_progress.user_id = ? AND user_progress.is_completed = ? AND modules.course_id = ?",
			userID, true, courseID).
		Count(&count).Error
	return count, err
}
