package service

import (
	"testing"

	"lms_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeModules() []model.Module {
	lesson := func(id uint, order int) model.Lesson {
		l := model.Lesson{Order: order}
		l.ID = id
		return l
	}
	group := func(id uint, lessons ...model.Lesson) model.Group {
		g := model.Group{Lessons: lessons}
		g.ID = id
		return g
	}
	module := func(id uint, groups ...model.Group) model.Module {
		m := model.Module{Groups: groups}
		m.ID = id
		return m
	}

	// two modules, the first with two groups
	return []model.Module{
		module(1,
			group(10, lesson(101, 1), lesson(102, 2)),
			group(11, lesson(103, 1)),
		),
		module(2,
			group(20, lesson(201, 1), lesson(202, 2)),
		),
	}
}

func TestCourseSequenceOrdering(t *testing.T) {
	seq := NewCourseSequence(makeModules())

	require.Equal(t, 5, seq.Len())
	var ids []uint
	for _, l := range seq.Lessons {
		ids = append(ids, l.LessonID)
	}
	assert.Equal(t, []uint{101, 102, 103, 201, 202}, ids)
}

func TestCourseSequenceOrderingRespectsLessonOrderOverID(t *testing.T) {
	l1 := model.Lesson{Order: 2}
	l1.ID = 1
	l2 := model.Lesson{Order: 1}
	l2.ID = 2
	g := model.Group{Lessons: []model.Lesson{l1, l2}}
	g.ID = 1
	m := model.Module{Groups: []model.Group{g}}
	m.ID = 1

	seq := NewCourseSequence([]model.Module{m})
	assert.Equal(t, uint(2), seq.Lessons[0].LessonID)
	assert.Equal(t, uint(1), seq.Lessons[1].LessonID)
}

func TestLessonStatus(t *testing.T) {
	seq := NewCourseSequence(makeModules())

	tests := []struct {
		name      string
		completed map[uint]bool
		lessonID  uint
		want      LessonStatus
	}{
		{"first lesson always open", nil, 101, LessonUnlocked},
		{"second locked without progress", nil, 102, LessonLocked},
		{"completed wins", map[uint]bool{102: true}, 102, LessonCompleted},
		{"unlocks after predecessor", map[uint]bool{101: true}, 102, LessonUnlocked},
		{"group boundary does not gate", map[uint]bool{101: true, 102: true}, 103, LessonUnlocked},
		{"module boundary does not gate", map[uint]bool{101: true, 102: true, 103: true}, 201, LessonUnlocked},
		{"far lesson stays locked", map[uint]bool{101: true}, 202, LessonLocked},
		{"unknown lesson is locked", nil, 999, LessonLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, seq.Status(tt.lessonID, tt.completed))
		})
	}
}

func TestNextUnlockedAfter(t *testing.T) {
	seq := NewCourseSequence(makeModules())

	// after completing the first lesson the second is next
	next := seq.NextUnlockedAfter(0, map[uint]bool{101: true})
	require.NotNil(t, next)
	assert.Equal(t, uint(102), *next)

	// a completed successor is skipped in favor of the first open lesson
	next = seq.NextUnlockedAfter(0, map[uint]bool{101: true, 102: true})
	require.NotNil(t, next)
	assert.Equal(t, uint(103), *next)

	// nothing reachable after the last lesson
	all := map[uint]bool{101: true, 102: true, 103: true, 201: true, 202: true}
	assert.Nil(t, seq.NextUnlockedAfter(4, all))

	// a gap blocks everything behind it
	assert.Nil(t, seq.NextUnlockedAfter(2, map[uint]bool{101: true, 103: true}))
}

func TestCurrentLessonID(t *testing.T) {
	seq := NewCourseSequence(makeModules())
	ptr := func(id uint) *uint { return &id }

	t.Run("no progress ignores stale pointer", func(t *testing.T) {
		got := seq.CurrentLessonID(ptr(103), nil)
		require.NotNil(t, got)
		assert.Equal(t, uint(101), *got)
	})

	t.Run("pointer honored once progress exists", func(t *testing.T) {
		got := seq.CurrentLessonID(ptr(103), map[uint]bool{101: true})
		require.NotNil(t, got)
		assert.Equal(t, uint(103), *got)
	})

	t.Run("dangling pointer falls back to first", func(t *testing.T) {
		got := seq.CurrentLessonID(ptr(999), map[uint]bool{101: true})
		require.NotNil(t, got)
		assert.Equal(t, uint(101), *got)
	})

	t.Run("nil pointer falls back to first", func(t *testing.T) {
		got := seq.CurrentLessonID(nil, map[uint]bool{101: true})
		require.NotNil(t, got)
		assert.Equal(t, uint(101), *got)
	})

	t.Run("empty sequence yields nil", func(t *testing.T) {
		empty := NewCourseSequence(nil)
		assert.Nil(t, empty.CurrentLessonID(ptr(1), nil))
	})
}

func TestAggregateModule(t *testing.T) {
	modules := makeModules()

	agg := AggregateModule(modules[0], map[uint]bool{101: true, 103: true})
	assert.Equal(t, 3, agg.TotalLessons)
	assert.Equal(t, 2, agg.CompletedLessons)
	assert.InDelta(t, 2.0/3.0, agg.Progress, 1e-9)
	assert.False(t, agg.IsCompleted)

	agg = AggregateModule(modules[1], map[uint]bool{201: true, 202: true})
	assert.True(t, agg.IsCompleted)
	assert.Equal(t, 1.0, agg.Progress)

	empty := AggregateModule(model.Module{}, nil)
	assert.Equal(t, 0, empty.TotalLessons)
	assert.Equal(t, 0.0, empty.Progress)
	assert.False(t, empty.IsCompleted)
}

func TestModuleLockPolicy(t *testing.T) {
	done := ModuleAggregate{TotalLessons: 2, CompletedLessons: 2, Progress: 1, IsCompleted: true}
	half := ModuleAggregate{TotalLessons: 2, CompletedLessons: 1, Progress: 0.5}

	tests := []struct {
		name       string
		ctx        ModuleLockContext
		wantLocked bool
		wantUnlock bool
	}{
		{
			"no progress only first open",
			ModuleLockContext{Index: 1, CurrentIndex: -1, ModuleCount: 3},
			true, false,
		},
		{
			"no progress first module open",
			ModuleLockContext{Index: 0, CurrentIndex: -1, ModuleCount: 3},
			false, false,
		},
		{
			"current module never locked",
			ModuleLockContext{Index: 1, CurrentIndex: 1, ModuleCount: 3, HasProgress: true, Aggregate: half, Current: half},
			false, false,
		},
		{
			"completed earlier module open for review",
			ModuleLockContext{Index: 0, CurrentIndex: 1, ModuleCount: 3, HasProgress: true, Aggregate: done, Current: half},
			false, false,
		},
		{
			"incomplete earlier module locked",
			ModuleLockContext{Index: 0, CurrentIndex: 1, ModuleCount: 3, HasProgress: true, Aggregate: half, Current: half},
			true, false,
		},
		{
			"later module locked without marker",
			ModuleLockContext{Index: 2, CurrentIndex: 1, ModuleCount: 3, HasProgress: true, Current: half},
			true, false,
		},
		{
			"later module open with marker",
			ModuleLockContext{Index: 2, CurrentIndex: 1, ModuleCount: 3, HasProgress: true, Current: half, Unlocked: true},
			false, false,
		},
		{
			"current complete raises unlock on itself",
			ModuleLockContext{Index: 1, CurrentIndex: 1, ModuleCount: 3, HasProgress: true, Aggregate: done, Current: done},
			false, true,
		},
		{
			"current complete raises unlock on successor",
			ModuleLockContext{Index: 2, CurrentIndex: 1, ModuleCount: 3, HasProgress: true, Current: done},
			true, true,
		},
		{
			"last module complete has nothing to unlock",
			ModuleLockContext{Index: 2, CurrentIndex: 2, ModuleCount: 3, HasProgress: true, Aggregate: done, Current: done},
			false, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantLocked, tt.ctx.Locked(), "Locked")
			assert.Equal(t, tt.wantUnlock, tt.ctx.CanUnlock(), "CanUnlock")
		})
	}
}

func TestFirstLessonID(t *testing.T) {
	modules := makeModules()
	got := FirstLessonID(&modules[0])
	require.NotNil(t, got)
	assert.Equal(t, uint(101), *got)

	assert.Nil(t, FirstLessonID(&model.Module{}))
}
