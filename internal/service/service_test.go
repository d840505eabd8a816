package service

import (
	"fmt"
	"os"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// a single connection keeps the in-memory database alive and makes the
	// serialization of concurrent writes observable
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
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
		t.Fatalf("migrate: %v", err)
	}

	return db
}

type fixture struct {
	db     *gorm.DB
	user   *model.User
	course *model.Course
	// modules in creation order, each fully preloaded
	modules []model.Module
	// lessons flattened in sequence order
	lessons []model.Lesson
}

// seedCourse creates a user and a course with the given shape, where each
// entry of lessonsPerModule is the lesson count of one module (one group per
// module).
func seedCourse(t *testing.T, db *gorm.DB, lessonsPerModule ...int) *fixture {
	t.Helper()

	user := &model.User{Name: "Ada", Email: "ada@example.com", Role: model.Student}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	course := &model.Course{Title: "Go from Zero", Slug: "go-from-zero", Description: "intro course"}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}

	f := &fixture{db: db, user: user, course: course}
	for mi, count := range lessonsPerModule {
		module := model.Module{
			CourseID: course.ID,
			Title:    fmt.Sprintf("Module %d", mi+1),
			Slug:     fmt.Sprintf("module-%d", mi+1),
		}
		if err := db.Create(&module).Error; err != nil {
			t.Fatalf("create module: %v", err)
		}

		group := model.Group{ModuleID: module.ID, Title: fmt.Sprintf("Group %d", mi+1)}
		if err := db.Create(&group).Error; err != nil {
			t.Fatalf("create group: %v", err)
		}

		for li := 0; li < count; li++ {
			lesson := model.Lesson{
				GroupID: group.ID,
				Title:   fmt.Sprintf("Lesson %d.%d", mi+1, li+1),
				Slug:    fmt.Sprintf("lesson-%d-%d", mi+1, li+1),
				Type:    model.LessonText,
				Order:   li + 1,
			}
			if err := db.Create(&lesson).Error; err != nil {
				t.Fatalf("create lesson: %v", err)
			}
			f.lessons = append(f.lessons, lesson)
		}

		f.modules = append(f.modules, module)
	}

	return f
}

func (f *fixture) enroll(t *testing.T) *model.UserCourse {
	t.Helper()
	uc := &model.UserCourse{UserID: f.user.ID, CourseID: f.course.ID}
	if err := f.db.Create(uc).Error; err != nil {
		t.Fatalf("enroll: %v", err)
	}
	return uc
}

func (f *fixture) reloadEnrollment(t *testing.T) *model.UserCourse {
	t.Helper()
	uc, err := repository.NewUserCourseRepository(f.db).FindByUserAndCourse(f.user.ID, f.course.ID)
	if err != nil {
		t.Fatalf("reload enrollment: %v", err)
	}
	return uc
}

func newTestLessonService(db *gorm.DB) *LessonService {
	return NewLessonService(
		repository.NewLessonRepository(db),
		repository.NewCourseRepository(db),
		repository.NewUserCourseRepository(db),
		repository.NewUserProgressRepository(db),
		repository.NewUserModuleProgressRepository(db),
		db,
		nil,
	)
}

func newTestCourseService(db *gorm.DB) *CourseService {
	return NewCourseService(
		repository.NewCourseRepository(db),
		repository.NewUserCourseRepository(db),
		repository.NewUserProgressRepository(db),
		repository.NewLessonRepository(db),
		repository.NewUserRepository(db),
		nil,
		0,
	)
}

func newTestModuleService(db *gorm.DB) *ModuleService {
	return NewModuleService(
		repository.NewCourseRepository(db),
		repository.NewLessonRepository(db),
		repository.NewUserCourseRepository(db),
		repository.NewUserProgressRepository(db),
		repository.NewUnlockedModuleRepository(db),
		nil,
	)
}

func newTestCertificateService(db *gorm.DB) *CertificateService {
	return NewCertificateService(
		repository.NewCertificateRepository(db),
		repository.NewUserRepository(db),
		repository.NewCourseRepository(db),
		repository.NewUserCourseRepository(db),
	)
}
