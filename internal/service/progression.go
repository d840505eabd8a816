package service

import (
	"sort"

	"lms_backend/internal/model"
)

type LessonStatus string

const (
	LessonLocked    LessonStatus = "locked"
	LessonUnlocked  LessonStatus = "unlocked"
	LessonCompleted LessonStatus = "completed"
)

// SequencedLesson is one entry of a course's total lesson order.
type SequencedLesson struct {
	LessonID    uint
	GroupID     uint
	ModuleID    uint
	moduleIndex int
	groupIndex  int
	order       int
}

// CourseSequence is the flattened, fully ordered lesson list of a course:
// every lesson across every module and group, ordered by (module index,
// group index, lesson order). This total order is what gates unlocking.
type CourseSequence struct {
	Lessons []SequencedLesson
	index   map[uint]int
}

// NewCourseSequence flattens a preloaded curriculum. Modules and groups are
// expected in creation order, lessons in their explicit order.
func NewCourseSequence(modules []model.Module) *CourseSequence {
	var lessons []SequencedLesson
	for mi, m := range modules {
		for gi, g := range m.Groups {
			for _, l := range g.Lessons {
				lessons = append(lessons, SequencedLesson{
					LessonID:    l.ID,
					GroupID:     g.ID,
					ModuleID:    m.ID,
					moduleIndex: mi,
					groupIndex:  gi,
					order:       l.Order,
				})
			}
		}
	}

	sort.SliceStable(lessons, func(i, j int) bool {
		a, b := lessons[i], lessons[j]
		if a.moduleIndex != b.moduleIndex {
			return a.moduleIndex < b.moduleIndex
		}
		if a.groupIndex != b.groupIndex {
			return a.groupIndex < b.groupIndex
		}
		return a.order < b.order
	})

	index := make(map[uint]int, len(lessons))
	for i, l := range lessons {
		index[l.LessonID] = i
	}

	return &CourseSequence{Lessons: lessons, index: index}
}

func (s *CourseSequence) Len() int {
	return len(s.Lessons)
}

func (s *CourseSequence) IndexOf(lessonID uint) (int, bool) {
	i, ok := s.index[lessonID]
	return i, ok
}

// Status decides lock state for a single lesson: completed wins, the first
// lesson of the sequence is always reachable, every other lesson needs its
// immediate predecessor completed.
func (s *CourseSequence) Status(lessonID uint, completed map[uint]bool) LessonStatus {
	i, ok := s.index[lessonID]
	if !ok {
		return LessonLocked
	}
	return s.statusAt(i, completed)
}

func (s *CourseSequence) statusAt(i int, completed map[uint]bool) LessonStatus {
	if completed[s.Lessons[i].LessonID] {
		return LessonCompleted
	}
	if i == 0 {
		return LessonUnlocked
	}
	if completed[s.Lessons[i-1].LessonID] {
		return LessonUnlocked
	}
	return LessonLocked
}

// NextUnlockedAfter scans forward from position `from` for the first lesson
// that is unlocked but not yet completed. A lesson only counts as reachable
// when its predecessor is completed, so gaps left by administrative skips do
// not leak lessons the learner cannot open.
func (s *CourseSequence) NextUnlockedAfter(from int, completed map[uint]bool) *uint {
	for i := from + 1; i < len(s.Lessons); i++ {
		if s.statusAt(i, completed) == LessonUnlocked {
			id := s.Lessons[i].LessonID
			return &id
		}
	}
	return nil
}

// CurrentLessonID resolves the resume pointer. With no completed lessons the
// stored pointer is ignored entirely (it may be stale from a previous
// enrollment cycle) and the first lesson wins; otherwise the pointer is used
// when it still exists in the sequence, falling back to the first lesson.
func (s *CourseSequence) CurrentLessonID(pointer *uint, completed map[uint]bool) *uint {
	if len(s.Lessons) == 0 {
		return nil
	}

	hasProgress := false
	for _, l := range s.Lessons {
		if completed[l.LessonID] {
			hasProgress = true
			break
		}
	}

	if hasProgress && pointer != nil {
		if _, ok := s.index[*pointer]; ok {
			id := *pointer
			return &id
		}
	}

	first := s.Lessons[0].LessonID
	return &first
}

// ModuleAggregate is the derived per-module progress view. It must always
// equal a recount of completed lessons over the module's total.
type ModuleAggregate struct {
	TotalLessons     int
	CompletedLessons int
	Progress         float64
	IsCompleted      bool
}

func AggregateModule(m model.Module, completed map[uint]bool) ModuleAggregate {
	agg := ModuleAggregate{}
	for _, g := range m.Groups {
		for _, l := range g.Lessons {
			agg.TotalLessons++
			if completed[l.ID] {
				agg.CompletedLessons++
			}
		}
	}
	if agg.TotalLessons > 0 {
		agg.Progress = float64(agg.CompletedLessons) / float64(agg.TotalLessons)
		agg.IsCompleted = agg.CompletedLessons == agg.TotalLessons
	}
	return agg
}

// ModuleLockContext carries everything the module-level lock policy needs for
// one module of a course. The policy is the manual-unlock variant: modules
// after the current one stay locked until the learner explicitly unlocks them.
type ModuleLockContext struct {
	Index        int
	CurrentIndex int
	ModuleCount  int
	HasProgress  bool
	Aggregate    ModuleAggregate
	Current      ModuleAggregate
	Unlocked     bool
}

// Locked applies the sequential lock rules: with no progress or no current
// pointer only the first module is open; earlier modules reopen for review
// only once fully complete; the current module is never locked; later modules
// need an explicit unlock marker.
func (c ModuleLockContext) Locked() bool {
	if !c.HasProgress || c.CurrentIndex < 0 {
		return c.Index > 0
	}
	switch {
	case c.Index < c.CurrentIndex:
		return !c.Aggregate.IsCompleted
	case c.Index == c.CurrentIndex:
		return false
	default:
		return !c.Unlocked
	}
}

// CanUnlock signals eligibility for the manual unlock action: the current
// module must be 100% complete and a later module must exist. The flag is
// raised on the current module and on its immediate successor.
func (c ModuleLockContext) CanUnlock() bool {
	if c.CurrentIndex < 0 || !c.Current.IsCompleted {
		return false
	}
	if c.Index == c.CurrentIndex && c.Index < c.ModuleCount-1 {
		return true
	}
	return c.Index == c.CurrentIndex+1
}

// FirstLessonID returns the id of the first lesson of a preloaded module, in
// group/lesson order, or nil for an empty module.
func FirstLessonID(m *model.Module) *uint {
	for _, g := range m.Groups {
		for _, l := range g.Lessons {
			id := l.ID
			return &id
		}
	}
	return nil
}
