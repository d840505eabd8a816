package service

import (
	"errors"
	"math"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type ModuleService struct {
	CourseRepo     *repository.CourseRepository
	LessonRepo     *repository.LessonRepository
	UserCourseRepo *repository.UserCourseRepository
	ProgressRepo   *repository.UserProgressRepository
	UnlockedRepo   *repository.UnlockedModuleRepository
	Redis          *redis.Client
}

func NewModuleService(
	courseRepo *repository.CourseRepository,
	lessonRepo *repository.LessonRepository,
	userCourseRepo *repository.UserCourseRepository,
	progressRepo *repository.UserProgressRepository,
	unlockedRepo *repository.UnlockedModuleRepository,
	rdb *redis.Client,
) *ModuleService {
	return &ModuleService{
		CourseRepo:     courseRepo,
		LessonRepo:     lessonRepo,
		UserCourseRepo: userCourseRepo,
		ProgressRepo:   progressRepo,
		UnlockedRepo:   unlockedRepo,
		Redis:          rdb,
	}
}

type ModuleWithProgress struct {
	ID               uint   `json:"id"`
	Title            string `json:"title"`
	Slug             string `json:"slug"`
	CourseID         string `json:"courseId"`
	Progress         int    `json:"progress"`
	IsCurrent        bool   `json:"isCurrent"`
	TotalLessons     int    `json:"totalLessons"`
	CompletedLessons int    `json:"completedLessons"`
	Locked           bool   `json:"locked"`
	CanUnlock        bool   `json:"canUnlock"`
}

type ModulesWithProgressResponse struct {
	Modules    []ModuleWithProgress `json:"modules"`
	NextModule *ModuleWithProgress  `json:"nextModule"`
}

// ListWithProgress annotates every module of a course with the user's
// progress and the manual-unlock lock policy. Accepts either a course id or
// a slug.
func (s *ModuleService) ListWithProgress(userID uint, courseID, slug string) (*ModulesWithProgressResponse, error) {
	if courseID == "" {
		if slug == "" {
			return nil, util.ErrCourseNotFound
		}
		course, err := s.CourseRepo.FindBySlug(slug)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		if err != nil {
			return nil, err
		}
		courseID = course.ID
	} else if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	enrollment, err := s.UserCourseRepo.FindByUserAndCourse(userID, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}

	modules, err := s.CourseRepo.ModulesWithLessons(courseID)
	if err != nil {
		return nil, err
	}

	rows, err := s.ProgressRepo.ListByUserCourse(enrollment.ID)
	if err != nil {
		return nil, err
	}
	completed := make(map[uint]bool, len(rows))
	hasProgress := false
	for _, row := range rows {
		if row.IsCompleted {
			completed[row.TaskID] = true
			hasProgress = true
		}
	}

	unlockedRows, err := s.UnlockedRepo.ListByUserAndCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	unlocked := make(map[uint]bool, len(unlockedRows))
	for _, row := range unlockedRows {
		unlocked[row.ModuleID] = true
	}

	currentIndex := -1
	if enrollment.CurrentModuleID != nil {
		for i, m := range modules {
			if m.ID == *enrollment.CurrentModuleID {
				currentIndex = i
				break
			}
		}
	}

	var currentAgg ModuleAggregate
	if currentIndex >= 0 {
		currentAgg = AggregateModule(modules[currentIndex], completed)
	}

	result := make([]ModuleWithProgress, 0, len(modules))
	for i, m := range modules {
		agg := AggregateModule(m, completed)
		lockCtx := ModuleLockContext{
			Index:        i,
			CurrentIndex: currentIndex,
			ModuleCount:  len(modules),
			HasProgress:  hasProgress,
			Aggregate:    agg,
			Current:      currentAgg,
			Unlocked:     unlocked[m.ID],
		}

		result = append(result, ModuleWithProgress{
			ID:               m.ID,
			Title:            m.Title,
			Slug:             m.Slug,
			CourseID:         m.CourseID,
			Progress:         int(math.Round(agg.Progress * 100)),
			IsCurrent:        i == currentIndex,
			TotalLessons:     agg.TotalLessons,
			CompletedLessons: agg.CompletedLessons,
			Locked:           lockCtx.Locked(),
			CanUnlock:        lockCtx.CanUnlock(),
		})
	}

	resp := &ModulesWithProgressResponse{Modules: result}
	if currentIndex >= 0 && currentIndex < len(modules)-1 {
		resp.NextModule = &result[currentIndex+1]
	}
	return resp, nil
}

type UnlockNextResult struct {
	UserCourse   *model.UserCourse `json:"userCourse"`
	NextModuleID *uint             `json:"nextModuleId"`
}

// UnlockNext is the manual module advance: it requires the current module to
// be fully complete, records the unlock marker for the next module and moves
// the enrollment pointer to its first lesson. With no current module yet it
// just initializes the pointer to the first module.
func (s *ModuleService) UnlockNext(userID uint, courseID string) (*UnlockNextResult, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	enrollment, err := s.UserCourseRepo.FindByUserAndCourse(userID, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}

	modules, err := s.CourseRepo.ModulesWithLessons(courseID)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, util.ErrCourseEmpty
	}

	currentIndex := -1
	if enrollment.CurrentModuleID != nil {
		for i, m := range modules {
			if m.ID == *enrollment.CurrentModuleID {
				currentIndex = i
				break
			}
		}
	}

	if currentIndex == -1 {
		first := modules[0]
		updated, err := s.UserCourseRepo.Update(enrollment.ID, map[string]interface{}{
			"current_module_id": first.ID,
			"current_task_id":   FirstLessonID(&first),
			"last_accessed_at":  time.Now(),
		})
		if err != nil {
			return nil, err
		}
		invalidateRoadmapCache(s.Redis, courseID, userID)
		return &UnlockNextResult{UserCourse: updated}, nil
	}

	current := modules[currentIndex]
	totalLessons := 0
	for _, g := range current.Groups {
		totalLessons += len(g.Lessons)
	}
	completedLessons, err := s.ProgressRepo.CountCompletedInModule(userID, current.ID)
	if err != nil {
		return nil, err
	}
	if totalLessons == 0 || completedLessons != int64(totalLessons) {
		return nil, util.ErrModuleIncomplete
	}

	if currentIndex >= len(modules)-1 {
		return nil, util.ErrNoNextModule
	}

	next := modules[currentIndex+1]
	if err := s.UnlockedRepo.Record(userID, courseID, next.ID); err != nil {
		return nil, err
	}

	updated, err := s.UserCourseRepo.Update(enrollment.ID, map[string]interface{}{
		"current_module_id": next.ID,
		"current_task_id":   FirstLessonID(&next),
		"last_accessed_at":  time.Now(),
	})
	if err != nil {
		return nil, err
	}

	invalidateRoadmapCache(s.Redis, courseID, userID)
	nextID := next.ID
	return &UnlockNextResult{UserCourse: updated, NextModuleID: &nextID}, nil
}

// SetCurrent jumps the enrollment pointer to an arbitrary module of the
// course. The current task survives the jump only when it still belongs to
// the target module; otherwise the pointer resets to the module's first
// lesson.
func (s *ModuleService) SetCurrent(userID uint, courseID string, moduleID uint) (*model.UserCourse, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	enrollment, err := s.UserCourseRepo.FindByUserAndCourse(userID, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}

	module, err := s.CourseRepo.FindModuleWithLessons(moduleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrModuleNotFound
	}
	if err != nil {
		return nil, err
	}
	if module.CourseID != courseID {
		return nil, util.ErrModuleNotInCourse
	}

	currentTaskID := FirstLessonID(module)
	if enrollment.CurrentModuleID != nil && *enrollment.CurrentModuleID == moduleID &&
		enrollment.CurrentTaskID != nil {
		if lesson, err := s.LessonRepo.FindByID(*enrollment.CurrentTaskID); err == nil {
			if group, err := s.CourseRepo.FindGroupByID(lesson.GroupID); err == nil && group.ModuleID == moduleID {
				currentTaskID = enrollment.CurrentTaskID
			}
		}
	}

	updated, err := s.UserCourseRepo.Update(enrollment.ID, map[string]interface{}{
		"current_module_id": moduleID,
		"current_task_id":   currentTaskID,
		"last_accessed_at":  time.Now(),
	})
	if err != nil {
		return nil, err
	}

	invalidateRoadmapCache(s.Redis, courseID, userID)
	return updated, nil
}
