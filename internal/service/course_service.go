package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo     *repository.CourseRepository
	UserCourseRepo *repository.UserCourseRepository
	ProgressRepo   *repository.UserProgressRepository
	LessonRepo     *repository.LessonRepository
	UserRepo       *repository.UserRepository
	Redis          *redis.Client
	CacheTTL       time.Duration
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	userCourseRepo *repository.UserCourseRepository,
	progressRepo *repository.UserProgressRepository,
	lessonRepo *repository.LessonRepository,
	userRepo *repository.UserRepository,
	rdb *redis.Client,
	cacheTTL time.Duration,
) *CourseService {
	return &CourseService{
		CourseRepo:     courseRepo,
		UserCourseRepo: userCourseRepo,
		ProgressRepo:   progressRepo,
		LessonRepo:     lessonRepo,
		UserRepo:       userRepo,
		Redis:          rdb,
		CacheTTL:       cacheTTL,
	}
}

type CourseSummary struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Progress    float64 `json:"progress"`
	IsCompleted bool    `json:"isCompleted"`
}

type RoadmapLesson struct {
	ID            uint         `json:"id"`
	Title         string       `json:"title"`
	Slug          string       `json:"slug"`
	Description   string       `json:"description"`
	Type          string       `json:"type"`
	VideoURL      *string      `json:"videoUrl"`
	VideoDuration *string      `json:"videoDuration"`
	Order         int          `json:"order"`
	Status        LessonStatus `json:"status"`
	IsCurrent     bool         `json:"isCurrent"`
	CanReview     bool         `json:"canReview"`
}

type RoadmapGroup struct {
	ID      uint            `json:"id"`
	Title   string          `json:"title"`
	Lessons []RoadmapLesson `json:"lessons"`
}

type RoadmapModule struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Groups      []RoadmapGroup `json:"groups"`
	Progress    float64        `json:"progress"`
	IsCompleted bool           `json:"isCompleted"`
}

type RoadmapResponse struct {
	Course  CourseSummary   `json:"course"`
	Modules []RoadmapModule `json:"modules"`
}

// GetRoadmap renders the full curriculum tree annotated with the user's
// lock/progress state. Read-only: it re-derives the same unlock decisions the
// completion flow uses, so the two always agree. A missing enrollment is a
// zero-progress preview, not an error.
func (s *CourseService) GetRoadmap(userID uint, courseID string) (*RoadmapResponse, error) {
	if cached := s.cachedRoadmap(courseID, userID); cached != nil {
		return cached, nil
	}

	course, err := s.CourseRepo.FindByID(courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	var enrollment *model.UserCourse
	uc, err := s.UserCourseRepo.FindByUserAndCourse(userID, courseID)
	if err == nil {
		enrollment = uc
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	modules, err := s.CourseRepo.ModulesWithLessons(courseID)
	if err != nil {
		return nil, err
	}
	seq := NewCourseSequence(modules)

	completed := make(map[uint]bool)
	if enrollment != nil {
		rows, err := s.ProgressRepo.ListByUserCourse(enrollment.ID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if row.IsCompleted {
				completed[row.TaskID] = true
			}
		}
	}

	var pointer *uint
	if enrollment != nil {
		pointer = enrollment.CurrentTaskID
	}
	currentID := seq.CurrentLessonID(pointer, completed)

	roadmapModules := make([]RoadmapModule, 0, len(modules))
	for _, m := range modules {
		agg := AggregateModule(m, completed)

		groups := make([]RoadmapGroup, 0, len(m.Groups))
		for _, g := range m.Groups {
			lessons := make([]RoadmapLesson, 0, len(g.Lessons))
			for _, l := range g.Lessons {
				status := seq.Status(l.ID, completed)
				lessons = append(lessons, RoadmapLesson{
					ID:            l.ID,
					Title:         l.Title,
					Slug:          l.Slug,
					Description:   l.Description,
					Type:          string(l.Type),
					VideoURL:      l.VideoURL,
					VideoDuration: l.VideoDuration,
					Order:         l.Order,
					Status:        status,
					IsCurrent:     currentID != nil && l.ID == *currentID,
					CanReview:     status == LessonCompleted,
				})
			}
			groups = append(groups, RoadmapGroup{ID: g.ID, Title: g.Title, Lessons: lessons})
		}

		roadmapModules = append(roadmapModules, RoadmapModule{
			ID:          m.ID,
			Title:       m.Title,
			Slug:        m.Slug,
			Groups:      groups,
			Progress:    agg.Progress,
			IsCompleted: agg.IsCompleted,
		})
	}

	courseProgress := 0.0
	if seq.Len() > 0 {
		completedCount := 0
		for _, l := range seq.Lessons {
			if completed[l.LessonID] {
				completedCount++
			}
		}
		courseProgress = float64(completedCount) / float64(seq.Len())
	}

	resp := &RoadmapResponse{
		Course: CourseSummary{
			ID:          course.ID,
			Title:       course.Title,
			Slug:        course.Slug,
			Progress:    courseProgress,
			IsCompleted: enrollment != nil && enrollment.IsCompleted,
		},
		Modules: roadmapModules,
	}

	s.storeRoadmap(courseID, userID, resp)
	return resp, nil
}

func (s *CourseService) cachedRoadmap(courseID string, userID uint) *RoadmapResponse {
	if s.Redis == nil {
		return nil
	}
	val, err := s.Redis.Get(context.Background(), roadmapCacheKey(courseID, userID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		logger.Log.Warn("roadmap cache read failed", zap.Error(err))
		return nil
	}
	var resp RoadmapResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil
	}
	return &resp
}

func (s *CourseService) storeRoadmap(courseID string, userID uint, resp *RoadmapResponse) {
	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.Redis.Set(context.Background(), roadmapCacheKey(courseID, userID), payload, s.CacheTTL).Err(); err != nil {
		logger.Log.Warn("roadmap cache write failed", zap.Error(err))
	}
}

type ContinueLesson struct {
	ID            uint    `json:"id"`
	Title         string  `json:"title"`
	Slug          string  `json:"slug"`
	Description   string  `json:"description"`
	Type          string  `json:"type"`
	VideoURL      *string `json:"videoUrl"`
	VideoDuration *string `json:"videoDuration"`
	Order         int     `json:"order"`
}

type ContinueModule struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type ContinueResponse struct {
	Lesson *ContinueLesson `json:"lesson"`
	Module *ContinueModule `json:"module"`
	Course CourseSummary   `json:"course"`
}

// Continue resolves "resume where I left off". With no course id it follows
// the user's active course; having none is a valid nothing-to-resume state,
// not an error. An explicit unknown course id is.
func (s *CourseService) Continue(userID uint, courseID string) (*ContinueResponse, error) {
	if courseID == "" {
		user, err := s.UserRepo.FindByID(userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err != nil || user.ActiveCourseID == nil {
			return &ContinueResponse{Course: CourseSummary{}}, nil
		}
		courseID = *user.ActiveCourseID
	}

	course, err := s.CourseRepo.FindByID(courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	enrollment, err := s.UserCourseRepo.FindByUserAndCourse(userID, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ContinueResponse{
			Course: CourseSummary{ID: course.ID, Title: course.Title, Slug: course.Slug},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	summary := CourseSummary{
		ID:          course.ID,
		Title:       course.Title,
		Slug:        course.Slug,
		Progress:    enrollment.Progress,
		IsCompleted: enrollment.IsCompleted,
	}

	if enrollment.IsCompleted {
		return &ContinueResponse{Course: summary}, nil
	}

	resp := &ContinueResponse{Course: summary}
	if enrollment.CurrentTaskID != nil {
		lesson, err := s.LessonRepo.FindByID(*enrollment.CurrentTaskID)
		if err == nil {
			resp.Lesson = &ContinueLesson{
				ID:            lesson.ID,
				Title:         lesson.Title,
				Slug:          lesson.Slug,
				Description:   lesson.Description,
				Type:          string(lesson.Type),
				VideoURL:      lesson.VideoURL,
				VideoDuration: lesson.VideoDuration,
				Order:         lesson.Order,
			}
			if enrollment.CurrentModuleID != nil {
				if module, err := s.CourseRepo.FindModuleByID(*enrollment.CurrentModuleID); err == nil {
					resp.Module = &ContinueModule{ID: module.ID, Title: module.Title, Slug: module.Slug}
				}
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return resp, nil
}

func (s *CourseService) List(page, limit int) ([]model.Course, int64, error) {
	return s.CourseRepo.List(page, limit)
}

func (s *CourseService) GetBySlug(slug string) (*model.Course, error) {
	course, err := s.CourseRepo.FindBySlug(slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	return course, err
}
