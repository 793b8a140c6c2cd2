package planner

import (
	"fmt"
	"slices"
	"time"

	"plancal/internal/model"
)

// Report summarizes one optimize pass.
type Report struct {
	// Blocks is the number of merged blocks produced.
	Blocks int
	// Shortfalls lists flexible tasks that could not be fully placed
	// before their deadline. This is not an error.
	Shortfalls []Shortfall
	// Conflicts lists fixed tasks that were kept as given although they
	// leave working hours or overlap another fixed task.
	Conflicts []Conflict
}

// Shortfall is the unallocated remainder of a flexible task.
type Shortfall struct {
	TaskID   int
	Title    string
	Deadline time.Time
	Missing  time.Duration
}

// ConflictKind classifies a fixed-task conflict.
type ConflictKind string

const (
	ConflictOutsideHours ConflictKind = "outside_working_hours"
	ConflictOverlap      ConflictKind = "overlaps_fixed_task"
)

// Conflict describes a fixed task that breaks a soft constraint.
type Conflict struct {
	TaskID int
	Title  string
	Kind   ConflictKind
	// OtherID is the other fixed task for ConflictOverlap.
	OtherID int
}

func (c Conflict) String() string {
	if c.Kind == ConflictOverlap {
		return fmt.Sprintf("task %d %q overlaps fixed task %d", c.TaskID, c.Title, c.OtherID)
	}
	return fmt.Sprintf("task %d %q is outside working hours", c.TaskID, c.Title)
}

// place runs the two placement phases over tasks and returns the raw,
// unmerged blocks. Fixed tasks are placed first and their time is removed
// from the slot pool; flexible tasks then take the earliest free slots in
// (deadline asc, priority desc) order.
func place(tasks []model.Task, today time.Time, o Options) ([]model.ScheduledBlock, Report) {
	g := newGrid(today, o)
	var (
		blocks []model.ScheduledBlock
		rep    Report
	)

	var fixed []model.ScheduledBlock
	for _, t := range tasks {
		if !t.IsFixed() {
			continue
		}
		b := model.ScheduledBlock{
			TaskID: t.ID,
			Title:  t.Title,
			Start:  *t.FixedStart,
			End:    t.FixedStart.Add(t.Duration()),
			Fixed:  true,
		}
		if outsideHours(b, o) {
			rep.Conflicts = append(rep.Conflicts, Conflict{TaskID: t.ID, Title: t.Title, Kind: ConflictOutsideHours})
		}
		for _, prev := range fixed {
			if prev.Overlaps(b) {
				rep.Conflicts = append(rep.Conflicts, Conflict{TaskID: t.ID, Title: t.Title, Kind: ConflictOverlap, OtherID: prev.TaskID})
			}
		}
		fixed = append(fixed, b)
		g.reserve(b.Start, b.End)
	}
	blocks = append(blocks, fixed...)

	flex := slices.DeleteFunc(slices.Clone(tasks), func(t model.Task) bool { return t.IsFixed() })
	slices.SortStableFunc(flex, byDeadlineThenPriority)

	last := o.horizonEnd(today)
	for _, t := range flex {
		remaining := t.Duration()
		stop := t.Deadline
		if stop.After(last) {
			stop = last
		}
		for day := today; remaining > 0 && !day.After(stop); day = day.AddDate(0, 0, 1) {
			for remaining > 0 {
				start, ok := g.pop(day)
				if !ok {
					break
				}
				blocks = append(blocks, model.ScheduledBlock{
					TaskID: t.ID,
					Title:  t.Title,
					Start:  start,
					End:    start.Add(o.Slot),
				})
				remaining -= o.Slot
			}
		}
		if remaining > 0 {
			rep.Shortfalls = append(rep.Shortfalls, Shortfall{
				TaskID:   t.ID,
				Title:    t.Title,
				Deadline: t.Deadline,
				Missing:  remaining,
			})
		}
	}
	return blocks, rep
}

// outsideHours reports whether b leaves the working window of its start day.
func outsideHours(b model.ScheduledBlock, o Options) bool {
	day := midnight(b.Start, o.location())
	return b.Start.Before(o.WorkStart.On(day)) || b.End.After(o.WorkEnd.On(day))
}
