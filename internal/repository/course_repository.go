package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) FindByID(id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, "id = ?", id).Error
	return &course, err
}

func (r *CourseRepository) FindBySlug(slug string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("slug = ?", slug).First(&course).Error
	return &course, err
}

func (r *CourseRepository) List(page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	if err := r.DB.Model(&model.Course{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.DB.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&courses).Error
	return courses, total, err
}

// ModulesWithLessons loads the whole curriculum of a course in its canonical
// order: modules and groups by creation, lessons by their explicit order field.
func (r *CourseRepository) ModulesWithLessons(courseID string) ([]model.Module, error) {
	var modules []model.Module
	err := r.DB.Where("course_id = ?", courseID).
		Order("id ASC").
		Preload("Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("lesson_groups.id ASC")
		}).
		Preload("Groups.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.`order` ASC, lessons.id ASC")
		}).
		Find(&modules).Error
	return modules, err
}

func (r *CourseRepository) FindModuleByID(id uint) (*model.Module, error) {
	var module model.Module
	err := r.DB.First(&module, id).Error
	return &module, err
}

func (r *CourseRepository) FindModuleWithLessons(id uint) (*model.Module, error) {
	var module model.Module
	err := r.DB.
		Preload("Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("lesson_groups.id ASC")
		}).
		Preload("Groups.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.`order` ASC, lessons.id ASC")
		}).
		First(&module, id).Error
	return &module, err
}

func (r *CourseRepository) FindGroupByID(id uint) (*model.Group, error) {
	var group model.Group
	err := r.DB.First(&group, id).Error
	return &group, err
}
