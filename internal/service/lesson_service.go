package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LessonService struct {
	LessonRepo         *repository.LessonRepository
	CourseRepo         *repository.CourseRepository
	UserCourseRepo     *repository.UserCourseRepository
	ProgressRepo       *repository.UserProgressRepository
	ModuleProgressRepo *repository.UserModuleProgressRepository
	DB                 *gorm.DB
	Redis              *redis.Client

	// Completion calls for the same enrollment are serialized so two
	// concurrent completions cannot race on the pointer/progress fields.
	mu              sync.Mutex
	enrollmentLocks map[string]*sync.Mutex
}

func NewLessonService(
	lessonRepo *repository.LessonRepository,
	courseRepo *repository.CourseRepository,
	userCourseRepo *repository.UserCourseRepository,
	progressRepo *repository.UserProgressRepository,
	moduleProgressRepo *repository.UserModuleProgressRepository,
	db *gorm.DB,
	rdb *redis.Client,
) *LessonService {
	return &LessonService{
		LessonRepo:         lessonRepo,
		CourseRepo:         courseRepo,
		UserCourseRepo:     userCourseRepo,
		ProgressRepo:       progressRepo,
		ModuleProgressRepo: moduleProgressRepo,
		DB:                 db,
		Redis:              rdb,
		enrollmentLocks:    make(map[string]*sync.Mutex),
	}
}

func (s *LessonService) lockEnrollment(id string) func() {
	s.mu.Lock()
	lock, ok := s.enrollmentLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.enrollmentLocks[id] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

type CompleteLessonResult struct {
	NextLessonID    *uint   `json:"nextLessonId"`
	ModuleCompleted bool    `json:"moduleCompleted"`
	CourseCompleted bool    `json:"courseCompleted"`
	CourseProgress  float64 `json:"courseProgress"`
}

// Complete marks a lesson finished for a user and cascades: lesson progress
// upsert, module aggregate recount, next-lesson selection and the enrollment
// pointer update all happen in one transaction. Completing an
// already-completed lesson changes nothing but still returns a valid result.
func (s *LessonService) Complete(userID, lessonID uint, score *float64) (*CompleteLessonResult, error) {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}

	// A lesson whose group or module is missing is corrupted curriculum
	// data, not a client mistake; surface it outside the domain taxonomy.
	group, err := s.CourseRepo.FindGroupByID(lesson.GroupID)
	if err != nil {
		return nil, fmt.Errorf("lesson %d references group %d: %w", lessonID, lesson.GroupID, err)
	}
	module, err := s.CourseRepo.FindModuleByID(group.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("group %d references module %d: %w", group.ID, group.ModuleID, err)
	}

	course, err := s.CourseRepo.FindByID(module.CourseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	enrollment, err := s.UserCourseRepo.FindByUserAndCourse(userID, course.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}

	unlock := s.lockEnrollment(enrollment.ID)
	defer unlock()

	var result CompleteLessonResult
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		progressRepo := repository.NewUserProgressRepository(tx)
		moduleProgressRepo := repository.NewUserModuleProgressRepository(tx)
		courseRepo := repository.NewCourseRepository(tx)
		userCourseRepo := repository.NewUserCourseRepository(tx)

		if _, err := progressRepo.Upsert(userID, lessonID, enrollment.ID, score); err != nil {
			return err
		}

		modules, err := courseRepo.ModulesWithLessons(course.ID)
		if err != nil {
			return err
		}
		seq := NewCourseSequence(modules)

		rows, err := progressRepo.ListByUserCourse(enrollment.ID)
		if err != nil {
			return err
		}
		completed := make(map[uint]bool, len(rows))
		for _, row := range rows {
			if row.IsCompleted {
				completed[row.TaskID] = true
			}
		}

		var moduleAgg ModuleAggregate
		for _, m := range modules {
			if m.ID == module.ID {
				moduleAgg = AggregateModule(m, completed)
				break
			}
		}
		if err := moduleProgressRepo.Upsert(&model.UserModuleProgress{
			UserID:         userID,
			ModuleID:       module.ID,
			UserCourseID:   enrollment.ID,
			TotalTasks:     moduleAgg.TotalLessons,
			TasksCompleted: moduleAgg.CompletedLessons,
			Progress:       moduleAgg.Progress,
			IsCompleted:    moduleAgg.IsCompleted,
		}); err != nil {
			return err
		}

		var nextLessonID *uint
		if pos, ok := seq.IndexOf(lessonID); ok {
			nextLessonID = seq.NextUnlockedAfter(pos, completed)
		}

		completedCount := 0
		for _, l := range seq.Lessons {
			if completed[l.LessonID] {
				completedCount++
			}
		}
		courseProgress := 0.0
		if seq.Len() > 0 {
			courseProgress = float64(completedCount) / float64(seq.Len())
		}
		courseCompleted := seq.Len() > 0 && completedCount == seq.Len()

		now := time.Now()
		if nextLessonID != nil {
			currentModuleID := enrollment.CurrentModuleID
			if pos, ok := seq.IndexOf(*nextLessonID); ok {
				id := seq.Lessons[pos].ModuleID
				currentModuleID = &id
			}
			if _, err := userCourseRepo.Update(enrollment.ID, map[string]interface{}{
				"current_task_id":   *nextLessonID,
				"current_module_id": currentModuleID,
				"progress":          courseProgress,
				"is_completed":      false,
				"last_accessed_at":  now,
			}); err != nil {
				return err
			}
		} else {
			fields := map[string]interface{}{
				"current_task_id":  nil,
				"progress":         courseProgress,
				"is_completed":     true,
				"last_accessed_at": now,
			}
			// CompletedAt is set at the completion transition and never
			// cleared afterwards.
			if enrollment.CompletedAt == nil {
				fields["completed_at"] = now
			}
			if _, err := userCourseRepo.Update(enrollment.ID, fields); err != nil {
				return err
			}
		}

		result = CompleteLessonResult{
			NextLessonID:    nextLessonID,
			ModuleCompleted: moduleAgg.IsCompleted,
			CourseCompleted: courseCompleted,
			CourseProgress:  courseProgress,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.LessonsCompleted.Inc()
	invalidateRoadmapCache(s.Redis, course.ID, userID)

	logger.Log.Info("lesson completed",
		zap.Uint("userId", userID),
		zap.Uint("lessonId", lessonID),
		zap.Float64("courseProgress", result.CourseProgress))

	return &result, nil
}

func roadmapCacheKey(courseID string, userID uint) string {
	return fmt.Sprintf("lms:roadmap:%s:%d", courseID, userID)
}

func invalidateRoadmapCache(rdb *redis.Client, courseID string, userID uint) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(context.Background(), roadmapCacheKey(courseID, userID)).Err(); err != nil {
		logger.Log.Warn("roadmap cache invalidation failed", zap.Error(err))
	}
}
