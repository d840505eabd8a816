package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type UserCourseRepository struct {
	DB *gorm.DB
}

func NewUserCourseRepository(db *gorm.DB) *UserCourseRepository {
	return &UserCourseRepository{DB: db}
}

func (r *UserCourseRepository) Create(uc *model.UserCourse) error {
	return r.DB.Create(uc).Error
}

func (r *UserCourseRepository) FindByID(id string) (*model.UserCourse, error) {
	var uc model.UserCourse
	err := r.DB.First(&uc, "id = ?", id).Error
	return &uc, err
}

func (r *UserCourseRepository) FindByUserAndCourse(userID uint, courseID string) (*model.UserCourse, error) {
	var uc model.UserCourse
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&uc).Error
	return &uc, err
}

// Update overwrites the given fields on the enrollment row. A map keeps zero
// values (nil pointers, false flags) writable, which Save on a struct is not.
func (r *UserCourseRepository) Update(id string, fields map[string]interface{}) (*model.UserCourse, error) {
	if err := r.DB.Model(&model.UserCourse{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return nil, err
	}
	return r.FindByID(id)
}
