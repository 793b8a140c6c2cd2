package planner

import (
	"cmp"
	"slices"

	"plancal/internal/model"
)

// TaskStore is the ordered in-memory task collection. It is not safe for
// concurrent use; Scheduler serializes access to it.
type TaskStore struct {
	ids   IDGenerator
	tasks []model.Task
}

// NewTaskStore returns an empty store. A nil ids uses a fresh Counter.
func NewTaskStore(ids IDGenerator) *TaskStore {
	if ids == nil {
		ids = &Counter{}
	}
	return &TaskStore{ids: ids}
}

// Insert assigns t a fresh id, appends it and returns the stored copy.
func (s *TaskStore) Insert(t model.Task) model.Task {
	t.ID = s.ids.NextID()
	t = cloneTask(t)
	s.tasks = append(s.tasks, t)
	return cloneTask(t)
}

func (s *TaskStore) index(id int) int {
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}

// Get looks a task up by id.
func (s *TaskStore) Get(id int) (model.Task, bool) {
	i := s.index(id)
	if i < 0 {
		return model.Task{}, false
	}
	return cloneTask(s.tasks[i]), true
}

// All returns the tasks in insertion order.
func (s *TaskStore) All() []model.Task {
	out := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = cloneTask(t)
	}
	return out
}

// List returns the tasks ordered by deadline ascending, then priority
// descending. Ties keep insertion order.
func (s *TaskStore) List() []model.Task {
	out := s.All()
	slices.SortStableFunc(out, byDeadlineThenPriority)
	return out
}

func (s *TaskStore) Len() int {
	return len(s.tasks)
}

// Delete removes the task with id. With DeleteAll and a recurring task,
// every task sharing its title and repeat rule is removed too.
func (s *TaskStore) Delete(id int, mode model.DeleteMode) (removed int, found bool) {
	i := s.index(id)
	if i < 0 {
		return 0, false
	}
	target := s.tasks[i]

	before := len(s.tasks)
	if mode == model.DeleteAll && target.Repeat.Recurs() {
		s.tasks = slices.DeleteFunc(s.tasks, func(t model.Task) bool {
			return t.Title == target.Title && t.Repeat == target.Repeat
		})
	} else {
		s.tasks = slices.Delete(s.tasks, i, i+1)
	}
	return before - len(s.tasks), true
}

// SetDuration mutates the duration of task id in place.
func (s *TaskStore) SetDuration(id int, hours float64) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.tasks[i].DurationHours = hours
	return true
}

func byDeadlineThenPriority(a, b model.Task) int {
	if c := a.Deadline.Compare(b.Deadline); c != 0 {
		return c
	}
	return cmp.Compare(b.Priority, a.Priority)
}

func cloneTask(t model.Task) model.Task {
	if t.FixedStart != nil {
		fs := *t.FixedStart
		t.FixedStart = &fs
	}
	return t
}
