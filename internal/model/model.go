package model

import (
	"fmt"
	"strings"
	"time"
)

// Wire layouts shared by the planner, the seed file and the HTTP API.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
	// isoLayout matches the timezone-less ISO form used when blocks and
	// tasks are flattened for transport.
	isoLayout = "2006-01-02T15:04:05"
)

// Repeat is the recurrence rule of a task.
type Repeat string

const (
	RepeatNone    Repeat = "none"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
	RepeatYearly  Repeat = "yearly"
)

// ParseRepeat normalizes a user supplied repeat value. An empty string is
// treated as RepeatNone.
func ParseRepeat(s string) (Repeat, error) {
	switch r := Repeat(strings.ToLower(strings.TrimSpace(s))); r {
	case "", RepeatNone:
		return RepeatNone, nil
	case RepeatWeekly, RepeatMonthly, RepeatYearly:
		return r, nil
	default:
		return "", fmt.Errorf("unknown repeat %q (want none, weekly, monthly or yearly)", s)
	}
}

// Recurs reports whether the rule spawns future occurrences.
func (r Repeat) Recurs() bool {
	return r == RepeatWeekly || r == RepeatMonthly || r == RepeatYearly
}

// DeleteMode selects how much of a recurring series a delete removes.
type DeleteMode string

const (
	DeleteSingle DeleteMode = "single"
	DeleteAll    DeleteMode = "all"
)

// ParseDeleteMode defaults to DeleteSingle when s is empty.
func ParseDeleteMode(s string) (DeleteMode, error) {
	switch m := DeleteMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", DeleteSingle:
		return DeleteSingle, nil
	case DeleteAll:
		return DeleteAll, nil
	default:
		return "", fmt.Errorf("unknown delete mode %q (want single or all)", s)
	}
}

// Task is a unit of work to place on the calendar.
//
// Occurrences generated from a recurring task are independent Task values
// that share Title and Repeat with their origin but carry their own ID,
// Deadline and FixedStart.
type Task struct {
	ID       int
	Title    string
	Deadline time.Time // midnight of the deadline date in the planner location

	// DurationHours is the amount of work to allocate, in hours.
	DurationHours float64
	Priority      int // 1 (lowest) .. 5 (highest)
	Repeat        Repeat

	// FixedStart pins the task to an exact start; nil means the task is
	// placed by slot search.
	FixedStart *time.Time
}

// Duration converts DurationHours into a time.Duration.
func (t Task) Duration() time.Duration {
	return time.Duration(t.DurationHours * float64(time.Hour))
}

// IsFixed reports whether the task has a pinned start.
func (t Task) IsFixed() bool {
	return t.FixedStart != nil
}

// Fields flattens the task into primitive values for transport.
func (t Task) Fields() map[string]any {
	m := map[string]any{
		"id":       t.ID,
		"title":    t.Title,
		"deadline": t.Deadline.Format(DateLayout),
		"duration": t.DurationHours,
		"priority": t.Priority,
		"repeat":   string(t.Repeat),
	}
	if t.FixedStart != nil {
		m["fixed_start"] = t.FixedStart.Format(isoLayout)
	}
	return m
}

// ScheduledBlock is a contiguous time allocation for one task.
type ScheduledBlock struct {
	TaskID int
	Title  string
	Start  time.Time
	End    time.Time
	Fixed  bool
}

// Duration is End - Start.
func (b ScheduledBlock) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// Overlaps reports whether b and o share any instant. Touching blocks do
// not overlap.
func (b ScheduledBlock) Overlaps(o ScheduledBlock) bool {
	return b.Start.Before(o.End) && o.Start.Before(b.End)
}

// Fields flattens the block into primitive values for transport.
func (b ScheduledBlock) Fields() map[string]any {
	return map[string]any{
		"task_id": b.TaskID,
		"title":   b.Title,
		"start":   b.Start.Format(isoLayout),
		"end":     b.End.Format(isoLayout),
		"fixed":   b.Fixed,
	}
}
