package planner

import (
	"time"

	"plancal/internal/model"
)

// Day is the ordered list of bookable slot starts on one calendar date.
type Day struct {
	Date  time.Time
	Slots []time.Time
}

// GenerateGrid returns one Day per date in [today, today+HorizonDays].
// Slots are spaced o.Slot apart from WorkStart and every slot ends no later
// than WorkEnd.
func GenerateGrid(today time.Time, o Options) []Day {
	loc := o.location()
	today = midnight(today, loc)

	days := make([]Day, 0, o.HorizonDays+1)
	for i := 0; i <= o.HorizonDays; i++ {
		d := today.AddDate(0, 0, i)
		days = append(days, Day{Date: d, Slots: daySlots(d, o)})
	}
	return days
}

func daySlots(day time.Time, o Options) []time.Time {
	if o.Slot <= 0 {
		return nil
	}
	start := o.WorkStart.On(day)
	end := o.WorkEnd.On(day)

	var slots []time.Time
	for t := start; !t.Add(o.Slot).After(end); t = t.Add(o.Slot) {
		slots = append(slots, t)
	}
	return slots
}

// grid is the mutable pool of free slots consumed by one optimize pass.
type grid struct {
	loc  *time.Location
	slot time.Duration
	free map[string][]time.Time
}

func newGrid(today time.Time, o Options) *grid {
	g := &grid{
		loc:  o.location(),
		slot: o.Slot,
		free: make(map[string][]time.Time, o.HorizonDays+1),
	}
	for _, d := range GenerateGrid(today, o) {
		g.free[dayKey(d.Date)] = d.Slots
	}
	return g
}

func dayKey(t time.Time) string {
	return t.Format(model.DateLayout)
}

// pop removes and returns the earliest free slot on day.
func (g *grid) pop(day time.Time) (time.Time, bool) {
	k := dayKey(day)
	slots := g.free[k]
	if len(slots) == 0 {
		return time.Time{}, false
	}
	g.free[k] = slots[1:]
	return slots[0], true
}

// reserve drops every free slot that intersects [start, end) and returns
// how many were removed. A slot only partly covered is removed as well.
func (g *grid) reserve(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	removed := 0
	last := midnight(end, g.loc)
	for d := midnight(start, g.loc); !d.After(last); d = d.AddDate(0, 0, 1) {
		k := dayKey(d)
		slots, ok := g.free[k]
		if !ok {
			continue
		}
		kept := slots[:0:0]
		for _, s := range slots {
			if s.Before(end) && s.Add(g.slot).After(start) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		g.free[k] = kept
	}
	return removed
}

// remaining returns the free slots still available on day.
func (g *grid) remaining(day time.Time) []time.Time {
	return g.free[dayKey(day)]
}
