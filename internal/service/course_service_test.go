package service

import (
	"testing"

	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRoadmapPreview(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 2, 1)
	svc := newTestCourseService(db)

	// no enrollment: full tree with zero progress
	resp, err := svc.GetRoadmap(f.user.ID, f.course.ID)
	require.NoError(t, err)

	assert.Equal(t, f.course.ID, resp.Course.ID)
	assert.Equal(t, 0.0, resp.Course.Progress)
	assert.False(t, resp.Course.IsCompleted)
	require.Len(t, resp.Modules, 2)

	first := resp.Modules[0].Groups[0].Lessons[0]
	assert.Equal(t, LessonUnlocked, first.Status)
	assert.True(t, first.IsCurrent)

	second := resp.Modules[0].Groups[0].Lessons[1]
	assert.Equal(t, LessonLocked, second.Status)
	assert.False(t, second.IsCurrent)
}

func TestGetRoadmapWithProgress(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 2, 1)
	f.enroll(t)
	lessonSvc := newTestLessonService(db)
	svc := newTestCourseService(db)

	_, err := lessonSvc.Complete(f.user.ID, f.lessons[0].ID, nil)
	require.NoError(t, err)

	resp, err := svc.GetRoadmap(f.user.ID, f.course.ID)
	require.NoError(t, err)

	assert.InDelta(t, 1.0/3.0, resp.Course.Progress, 1e-9)

	lessons := resp.Modules[0].Groups[0].Lessons
	assert.Equal(t, LessonCompleted, lessons[0].Status)
	assert.True(t, lessons[0].CanReview)
	assert.Equal(t, LessonUnlocked, lessons[1].Status)
	assert.True(t, lessons[1].IsCurrent)
	assert.Equal(t, LessonLocked, resp.Modules[1].Groups[0].Lessons[0].Status)

	assert.InDelta(t, 0.5, resp.Modules[0].Progress, 1e-9)
	assert.False(t, resp.Modules[0].IsCompleted)
}

func TestGetRoadmapStalePointer(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 2)
	uc := f.enroll(t)
	svc := newTestCourseService(db)

	// a leftover pointer without any completed lesson must be ignored
	require.NoError(t, db.Model(uc).Update("current_task_id", f.lessons[1].ID).Error)

	resp, err := svc.GetRoadmap(f.user.ID, f.course.ID)
	require.NoError(t, err)

	lessons := resp.Modules[0].Groups[0].Lessons
	assert.True(t, lessons[0].IsCurrent)
	assert.False(t, lessons[1].IsCurrent)
}

func TestGetRoadmapUnknownCourse(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 1)
	svc := newTestCourseService(db)

	_, err := svc.GetRoadmap(f.user.ID, "no-such-course")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestContinueWithoutActiveCourse(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 1)
	svc := newTestCourseService(db)

	resp, err := svc.Continue(f.user.ID, "")
	require.NoError(t, err)
	assert.Nil(t, resp.Lesson)
	assert.Nil(t, resp.Module)
	assert.Empty(t, resp.Course.ID)
}

func TestContinueUnknownCourse(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 1)
	svc := newTestCourseService(db)

	_, err := svc.Continue(f.user.ID, "no-such-course")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestContinueUnenrolled(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 1)
	svc := newTestCourseService(db)

	resp, err := svc.Continue(f.user.ID, f.course.ID)
	require.NoError(t, err)
	assert.Nil(t, resp.Lesson)
	assert.Equal(t, f.course.ID, resp.Course.ID)
	assert.Equal(t, 0.0, resp.Course.Progress)
}

func TestContinueResumesPointer(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 3)
	f.enroll(t)
	lessonSvc := newTestLessonService(db)
	svc := newTestCourseService(db)

	_, err := lessonSvc.Complete(f.user.ID, f.lessons[0].ID, nil)
	require.NoError(t, err)

	resp, err := svc.Continue(f.user.ID, f.course.ID)
	require.NoError(t, err)

	require.NotNil(t, resp.Lesson)
	assert.Equal(t, f.lessons[1].ID, resp.Lesson.ID)
	require.NotNil(t, resp.Module)
	assert.Equal(t, f.modules[0].ID, resp.Module.ID)
	assert.InDelta(t, 1.0/3.0, resp.Course.Progress, 1e-9)
}

func TestContinueFollowsActiveCourse(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 2)
	f.enroll(t)
	require.NoError(t, db.Model(f.user).Update("active_course_id", f.course.ID).Error)

	lessonSvc := newTestLessonService(db)
	_, err := lessonSvc.Complete(f.user.ID, f.lessons[0].ID, nil)
	require.NoError(t, err)

	svc := newTestCourseService(db)
	resp, err := svc.Continue(f.user.ID, "")
	require.NoError(t, err)

	require.NotNil(t, resp.Lesson)
	assert.Equal(t, f.lessons[1].ID, resp.Lesson.ID)
}

func TestContinueCompletedCourse(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 1)
	f.enroll(t)
	lessonSvc := newTestLessonService(db)
	svc := newTestCourseService(db)

	_, err := lessonSvc.Complete(f.user.ID, f.lessons[0].ID, nil)
	require.NoError(t, err)

	resp, err := svc.Continue(f.user.ID, f.course.ID)
	require.NoError(t, err)

	assert.Nil(t, resp.Lesson)
	assert.True(t, resp.Course.IsCompleted)
	assert.Equal(t, 1.0, resp.Course.Progress)
}

func TestGetBySlug(t *testing.T) {
	db := setupTestDB(t)
	f := seedCourse(t, db, 1)
	svc := newTestCourseService(db)

	course, err := svc.GetBySlug(f.course.Slug)
	require.NoError(t, err)
	assert.Equal(t, f.course.ID, course.ID)

	_, err = svc.GetBySlug("missing")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestListCourses(t *testing.T) {
	db := setupTestDB(t)
	seedCourse(t, db, 1)
	svc := newTestCourseService(db)

	courses, total, err := svc.List(1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, courses, 1)
}
