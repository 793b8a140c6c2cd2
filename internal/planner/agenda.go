package planner

import (
	"time"

	"plancal/internal/model"
)

func agendaFor(blocks []model.ScheduledBlock, day time.Time, loc *time.Location) []model.ScheduledBlock {
	key := dayKey(midnight(day, loc))
	out := make([]model.ScheduledBlock, 0)
	for _, b := range blocks {
		if dayKey(b.Start.In(loc)) == key {
			out = append(out, b)
		}
	}
	sortByStart(out)
	return out
}

func agendaAll(blocks []model.ScheduledBlock) []model.ScheduledBlock {
	out := make([]model.ScheduledBlock, len(blocks))
	copy(out, blocks)
	sortByStart(out)
	return out
}
