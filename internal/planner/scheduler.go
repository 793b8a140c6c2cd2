package planner

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	appLog "plancal/internal/log"
	"plancal/internal/model"
)

const defaultPriority = 3

// maxDurationHours is the largest duration that still fits a time.Duration.
const maxDurationHours = float64(math.MaxInt64 / int64(time.Hour))

// fixedStartLayouts are accepted for FixedStart; the second form is what
// HTML datetime-local inputs submit.
var fixedStartLayouts = []string{model.DateTimeLayout, "2006-01-02T15:04"}

// Scheduler owns the task store and the derived block collection. Every
// exported method holds one mutex for its whole duration, so Optimize
// replaces the block collection atomically with respect to readers.
type Scheduler struct {
	mu     sync.Mutex
	opts   Options
	clock  Clock
	store  *TaskStore
	blocks []model.ScheduledBlock
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source used to determine "today".
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithIDGenerator overrides the task id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Scheduler) { s.store = NewTaskStore(g) }
}

// New constructs a Scheduler. Options are assumed valid; see Options.Validate.
func New(o Options, opts ...Option) *Scheduler {
	if o.Location == nil {
		o.Location = time.Local
	}
	s := &Scheduler{
		opts:  o,
		clock: RealClock{},
		store: NewTaskStore(nil),
	}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// Options returns the planning constants the scheduler was built with.
func (s *Scheduler) Options() Options {
	return s.opts
}

// Today is midnight of the current date in the planner location.
func (s *Scheduler) Today() time.Time {
	return midnight(s.clock.Now(), s.opts.Location)
}

// AddInput is the create-task request in its wire shape.
type AddInput struct {
	Title    string
	Deadline string // YYYY-MM-DD
	Duration float64
	// Priority 0 means the default (3).
	Priority int
	// Repeat is none, weekly, monthly or yearly; empty means none.
	Repeat string
	// FixedStart is "YYYY-MM-DD HH:MM"; empty means flexible.
	FixedStart string
}

// Add validates in, stores a new task and, for recurring tasks, appends one
// independent task per future occurrence within the horizon. It returns
// the id of the base task.
func (s *Scheduler) Add(in AddInput) (int, error) {
	t, err := s.parseInput(in)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.store.Insert(t)
	if !base.Repeat.Recurs() {
		return base.ID, nil
	}

	dates, err := ExpandRecurrence(base, s.opts.horizonEnd(s.Today()))
	if err != nil {
		appLog.Error("recurrence expansion failed", err, "task_id", base.ID, "repeat", string(base.Repeat))
		return base.ID, nil
	}
	for _, d := range dates {
		s.store.Insert(occurrence(base, d))
	}
	appLog.Debug("recurring task added", "task_id", base.ID, "repeat", string(base.Repeat), "occurrences", len(dates))
	return base.ID, nil
}

func (s *Scheduler) parseInput(in AddInput) (model.Task, error) {
	loc := s.opts.Location

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	deadline, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(in.Deadline), loc)
	if err != nil {
		return model.Task{}, fmt.Errorf("%w %q (want YYYY-MM-DD)", ErrInvalidDate, in.Deadline)
	}
	if err := checkDuration(in.Duration); err != nil {
		return model.Task{}, err
	}
	prio := in.Priority
	if prio == 0 {
		prio = defaultPriority
	}
	if prio < 1 || prio > 5 {
		return model.Task{}, fmt.Errorf("%w: %d", ErrInvalidPriority, in.Priority)
	}
	repeat, err := model.ParseRepeat(in.Repeat)
	if err != nil {
		return model.Task{}, fmt.Errorf("%w: %v", ErrInvalidRepeat, err)
	}

	t := model.Task{
		Title:         title,
		Deadline:      deadline,
		DurationHours: in.Duration,
		Priority:      prio,
		Repeat:        repeat,
	}
	if raw := strings.TrimSpace(in.FixedStart); raw != "" {
		fs, err := parseFixedStart(raw, loc)
		if err != nil {
			return model.Task{}, err
		}
		t.FixedStart = &fs
	}
	return t, nil
}

// checkDuration rejects durations that are not positive and finite or that
// overflow time.Duration.
func checkDuration(hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 || hours > maxDurationHours {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, hours)
	}
	return nil
}

func parseFixedStart(raw string, loc *time.Location) (time.Time, error) {
	for _, layout := range fixedStartLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q (want YYYY-MM-DD HH:MM)", ErrInvalidDateTime, raw)
}

// Get returns the task with id.
func (s *Scheduler) Get(id int) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

// List returns all tasks ordered by deadline, then priority descending.
func (s *Scheduler) List() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.List()
}

// Delete removes a task (DeleteSingle) or its whole recurrence series
// (DeleteAll). It reports whether the id existed. Blocks already computed
// are left until the next Optimize.
func (s *Scheduler) Delete(id int, mode model.DeleteMode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.store.Delete(id, mode)
	if ok {
		appLog.Debug("task deleted", "task_id", id, "mode", string(mode), "removed", n)
	}
	return ok
}

// ChangeDuration sets a new duration on task id and re-optimizes so no
// allocation goes stale. It reports whether the id existed.
func (s *Scheduler) ChangeDuration(id int, hours float64) (bool, error) {
	if err := checkDuration(hours); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.SetDuration(id, hours) {
		return false, nil
	}
	s.optimizeLocked()
	return true, nil
}

// Optimize discards every block and rebuilds the schedule from the
// current tasks. Running it twice with unchanged tasks yields the same
// blocks.
func (s *Scheduler) Optimize() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.optimizeLocked()
}

func (s *Scheduler) optimizeLocked() Report {
	start := time.Now()
	s.blocks = nil

	if s.store.Len() == 0 {
		return Report{}
	}

	raw, rep := place(s.store.All(), s.Today(), s.opts)
	s.blocks = MergeBlocks(raw)
	rep.Blocks = len(s.blocks)

	for _, sf := range rep.Shortfalls {
		appLog.Info("task partially scheduled",
			"task_id", sf.TaskID,
			"title", sf.Title,
			"deadline", sf.Deadline.Format(model.DateLayout),
			"missing", sf.Missing,
		)
	}
	for _, c := range rep.Conflicts {
		appLog.Warn("fixed task kept despite conflict", "task_id", c.TaskID, "kind", string(c.Kind), "other_id", c.OtherID)
	}
	appLog.Debug("optimize completed",
		"tasks", s.store.Len(),
		"raw_blocks", len(raw),
		"blocks", rep.Blocks,
		"shortfalls", len(rep.Shortfalls),
		"took", time.Since(start),
	)
	return rep
}

// AgendaFor returns the blocks starting on day's calendar date, by start.
func (s *Scheduler) AgendaFor(day time.Time) []model.ScheduledBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return agendaFor(s.blocks, day, s.opts.Location)
}

// AgendaAll returns every block, by start.
func (s *Scheduler) AgendaAll() []model.ScheduledBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return agendaAll(s.blocks)
}
