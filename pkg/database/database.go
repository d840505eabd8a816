package database

import (
	"fmt"
	"log"

	"lms_backend/internal/config"
	"lms_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}

// Migrate creates the schema and seeds the default certificate template.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Module{},
		&model.Group{},
		&model.Lesson{},
		&model.UserCourse{},
		&model.UserProgress{},
		&model.UserModuleProgress{},
		&model.UnlockedModule{},
		&model.CertificateTemplate{},
		&model.Certificate{},
	)
	if err != nil {
		return err
	}

	var count int64
	db.Model(&model.CertificateTemplate{}).Count(&count)
	if count == 0 {
		template := &model.CertificateTemplate{
			Name:        "Course Completion",
			Description: "Default template for course completion certificates",
		}
		if err := db.Create(template).Error; err != nil {
			return err
		}
	}

	return nil
}
