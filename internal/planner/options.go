package planner

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	defaultSlot        = 30 * time.Minute
	defaultHorizonDays = 60
)

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (ClockTime, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ClockTime{}, fmt.Errorf("invalid clock time %q (want HH:MM)", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || (h == 24 && m != 0) {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

// On returns the instant of c on the calendar date of day, in day's location.
func (c ClockTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// Options are the process-wide planning constants.
type Options struct {
	WorkStart   ClockTime
	WorkEnd     ClockTime
	Slot        time.Duration
	HorizonDays int
	// Location is the zone all dates and times are interpreted in.
	// Nil means time.Local.
	Location *time.Location
}

// DefaultOptions is a 09:00-17:00 day, 30 minute slots, 60 day horizon.
func DefaultOptions() Options {
	return Options{
		WorkStart:   ClockTime{Hour: 9},
		WorkEnd:     ClockTime{Hour: 17},
		Slot:        defaultSlot,
		HorizonDays: defaultHorizonDays,
		Location:    time.Local,
	}
}

// Validate reports options that cannot produce a usable grid.
func (o Options) Validate() error {
	if o.Slot <= 0 {
		return fmt.Errorf("slot must be > 0, got %s", o.Slot)
	}
	if o.HorizonDays < 0 {
		return fmt.Errorf("horizon_days must be >= 0, got %d", o.HorizonDays)
	}
	window := time.Duration(o.WorkEnd.minutes()-o.WorkStart.minutes()) * time.Minute
	if window <= 0 {
		return fmt.Errorf("work_end %s must be after work_start %s", o.WorkEnd, o.WorkStart)
	}
	if o.Slot > window {
		return fmt.Errorf("slot %s does not fit the working window %s-%s", o.Slot, o.WorkStart, o.WorkEnd)
	}
	return nil
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// midnight truncates t to the start of its calendar date in loc.
func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// horizonEnd is the last date covered by the planning horizon.
func (o Options) horizonEnd(today time.Time) time.Time {
	return today.AddDate(0, 0, o.HorizonDays)
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// IDGenerator hands out task ids. Ids must never repeat.
type IDGenerator interface {
	NextID() int
}

// Counter is a monotonically increasing IDGenerator starting at 1.
type Counter struct {
	n atomic.Int64
}

func (c *Counter) NextID() int {
	return int(c.n.Add(1))
}
