package planner

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"plancal/internal/model"
)

// ExpandRecurrence returns the occurrence dates that follow base.Deadline
// under base.Repeat, up to and including until. The base date itself is
// never returned. A non-recurring task yields nothing.
//
// Each occurrence is one period after the previous one. Monthly and yearly
// steps clamp to the last day of a shorter month and keep the clamped day
// from then on, so Jan 31 is followed by Feb 28 and then Mar 28.
func ExpandRecurrence(base model.Task, until time.Time) ([]time.Time, error) {
	if !base.Repeat.Recurs() || base.Deadline.After(until) {
		return nil, nil
	}

	var out []time.Time
	prev := base.Deadline
	for {
		r, err := stepRule(base.Repeat, prev)
		if err != nil {
			return nil, fmt.Errorf("expand %s recurrence for %q: %w", base.Repeat, base.Title, err)
		}
		next := r.After(prev, false)
		if next.IsZero() || next.After(until) {
			return out, nil
		}
		out = append(out, next)
		prev = next
	}
}

// stepRule builds a rule anchored at from whose second occurrence is one
// period later.
func stepRule(repeat model.Repeat, from time.Time) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Dtstart: from,
		Count:   2,
	}

	switch repeat {
	case model.RepeatWeekly:
		opt.Freq = rrule.WEEKLY
	case model.RepeatMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = clampedMonthDay(from.Day())
	case model.RepeatYearly:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(from.Month())}
		opt.Bymonthday = clampedMonthDay(from.Day())
	default:
		return nil, fmt.Errorf("unsupported repeat %q", repeat)
	}

	// With {day, -1} the earliest match per period is the day itself when
	// the month has it and the month's last day otherwise.
	if len(opt.Bymonthday) > 1 {
		opt.Bysetpos = []int{1}
	}
	return rrule.NewRRule(opt)
}

func clampedMonthDay(day int) []int {
	if day > 28 {
		return []int{day, -1}
	}
	return []int{day}
}

// occurrence builds the independent task record for one expanded date.
func occurrence(base model.Task, date time.Time) model.Task {
	t := model.Task{
		Title:         base.Title,
		Deadline:      date,
		DurationHours: base.DurationHours,
		Priority:      base.Priority,
		Repeat:        base.Repeat,
	}
	if base.FixedStart != nil {
		fs := *base.FixedStart
		at := time.Date(date.Year(), date.Month(), date.Day(),
			fs.Hour(), fs.Minute(), fs.Second(), 0, date.Location())
		t.FixedStart = &at
	}
	return t
}
