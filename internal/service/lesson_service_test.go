package service

import (
	"sync"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteLesson(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 3)
	f.enroll(t)
	svc := newTestLessonService(db)

	result, err := svc.Complete(f.user.ID, f.lessons[0].ID, nil)
	require.NoError(t, err)

	require.NotNil(t, result.NextLessonID)
	assert.Equal(t, f.lessons[1].ID, *result.NextLessonID)
	assert.False(t, result.ModuleCompleted)
	assert.False(t, result.CourseCompleted)
	assert.InDelta(t, 1.0/3.0, result.CourseProgress, 1e-9)

	uc := f.reloadEnrollment(t)
	require.NotNil(t, uc.CurrentTaskID)
	assert.Equal(t, f.lessons[1].ID, *uc.CurrentTaskID)
	require.NotNil(t, uc.CurrentModuleID)
	assert.Equal(t, f.modules[0].ID, *uc.CurrentModuleID)
	assert.False(t, uc.IsCompleted)
	assert.Nil(t, uc.CompletedAt)
	assert.InDelta(t, 1.0/3.0, uc.Progress, 1e-9)

	var agg model.UserModuleProgress
	require.NoError(t, db.Where("user_id = ? AND module_id = ?", f.user.ID, f.modules[0].ID).First(&agg).Error)
	assert.Equal(t, 3, agg.TotalTasks)
	assert.Equal(t, 1, agg.TasksCompleted)
	assert.False(t, agg.IsCompleted)
}

func TestCompleteLessonIdempotent(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 3)
	f.enroll(t)
	svc := newTestLessonService(db)

	_, err := svc.Complete(f.user.ID, f.lessons[0].ID, nil)
	require.NoError(t, err)

	var first model.UserProgress
	require.NoError(t, db.Where("user_id = ? AND task_id = ?", f.user.ID, f.lessons[0].ID).First(&first).Error)

	result, err := svc.Complete(f.user.ID, f.lessons[0].ID, nil)
	require.NoError(t, err)
	require.NotNil(t, result.NextLessonID)
	assert.Equal(t, f.lessons[1].ID, *result.NextLessonID)
	assert.InDelta(t, 1.0/3.0, result.CourseProgress, 1e-9)

	var count int64
	db.Model(&model.UserProgress{}).Where("user_id = ?", f.user.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	var again model.UserProgress
	require.NoError(t, db.Where("user_id = ? AND task_id = ?", f.user.ID, f.lessons[0].ID).First(&again).Error)
	require.NotNil(t, again.CompletedAt)
	assert.Equal(t, first.CompletedAt.Unix(), again.CompletedAt.Unix())
}

func TestCompleteLessonFinishesCourse(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 2)
	f.enroll(t)
	svc := newTestLessonService(db)

	_, err := svc.Complete(f.user.ID, f.lessons[0].ID, nil)
	require.NoError(t, err)

	result, err := svc.Complete(f.user.ID, f.lessons[1].ID, nil)
	require.NoError(t, err)

	assert.Nil(t, result.NextLessonID)
	assert.True(t, result.ModuleCompleted)
	assert.True(t, result.CourseCompleted)
	assert.Equal(t, 1.0, result.CourseProgress)

	uc := f.reloadEnrollment(t)
	assert.True(t, uc.IsCompleted)
	assert.Nil(t, uc.CurrentTaskID)
	require.NotNil(t, uc.CompletedAt)
	firstCompletion := *uc.CompletedAt

	// re-completing the last lesson must not move the completion timestamp
	_, err = svc.Complete(f.user.ID, f.lessons[1].ID, nil)
	require.NoError(t, err)
	uc = f.reloadEnrollment(t)
	require.NotNil(t, uc.CompletedAt)
	assert.Equal(t, firstCompletion.Unix(), uc.CompletedAt.Unix())
}

func TestCompleteLessonAdvancesModulePointer(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 1, 2)
	f.enroll(t)
	svc := newTestLessonService(db)

	result, err := svc.Complete(f.user.ID, f.lessons[0].ID, nil)
	require.NoError(t, err)

	require.NotNil(t, result.NextLessonID)
	assert.Equal(t, f.lessons[1].ID, *result.NextLessonID)
	assert.True(t, result.ModuleCompleted)
	assert.False(t, result.CourseCompleted)

	uc := f.reloadEnrollment(t)
	require.NotNil(t, uc.CurrentModuleID)
	assert.Equal(t, f.modules[1].ID, *uc.CurrentModuleID)
}

func TestCompleteLessonStoresScore(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 2)
	f.enroll(t)
	svc := newTestLessonService(db)

	score := 87.5
	_, err := svc.Complete(f.user.ID, f.lessons[0].ID, &score)
	require.NoError(t, err)

	var progress model.UserProgress
	require.NoError(t, db.Where("user_id = ? AND task_id = ?", f.user.ID, f.lessons[0].ID).First(&progress).Error)
	require.NotNil(t, progress.Score)
	assert.Equal(t, 87.5, *progress.Score)
}

func TestCompleteLessonErrors(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 2)
	svc := newTestLessonService(db)

	t.Run("unknown lesson", func(t *testing.T) {
		_, err := svc.Complete(f.user.ID, 9999, nil)
		assert.ErrorIs(t, err, util.ErrLessonNotFound)
	})

	t.Run("not enrolled", func(t *testing.T) {
		_, err := svc.Complete(f.user.ID, f.lessons[0].ID, nil)
		assert.ErrorIs(t, err, util.ErrNotEnrolled)
	})
}

func TestCompleteLessonConcurrent(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 3)
	f.enroll(t)
	svc := newTestLessonService(db)

	_, err := svc.Complete(f.user.ID, f.lessons[0].ID, nil)
	require.NoError(t, err)

	// two racing completions of the same lesson must not duplicate rows or
	// corrupt the aggregate
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Complete(f.user.ID, f.lessons[1].ID, nil)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	var count int64
	db.Model(&model.UserProgress{}).Where("user_id = ? AND task_id = ?", f.user.ID, f.lessons[1].ID).Count(&count)
	assert.Equal(t, int64(1), count)

	uc := f.reloadEnrollment(t)
	require.NotNil(t, uc.CurrentTaskID)
	assert.Equal(t, f.lessons[2].ID, *uc.CurrentTaskID)
	assert.InDelta(t, 2.0/3.0, uc.Progress, 1e-9)
}
