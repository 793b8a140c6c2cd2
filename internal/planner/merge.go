package planner

import (
	"cmp"
	"slices"

	"plancal/internal/model"
)

type blockKey struct {
	taskID int
	fixed  bool
}

// MergeBlocks coalesces blocks of the same task (and fixed flag) whose end
// meets the next block's start and whose titles match. The result is
// sorted by start, then task id. Merging an already merged set is a no-op.
func MergeBlocks(blocks []model.ScheduledBlock) []model.ScheduledBlock {
	groups := make(map[blockKey][]model.ScheduledBlock)
	var order []blockKey
	for _, b := range blocks {
		k := blockKey{taskID: b.TaskID, fixed: b.Fixed}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], b)
	}

	merged := make([]model.ScheduledBlock, 0, len(blocks))
	for _, k := range order {
		group := groups[k]
		slices.SortStableFunc(group, func(a, b model.ScheduledBlock) int {
			return a.Start.Compare(b.Start)
		})

		cur := group[0]
		for _, b := range group[1:] {
			if b.Start.Equal(cur.End) && b.Title == cur.Title {
				cur.End = b.End
				continue
			}
			merged = append(merged, cur)
			cur = b
		}
		merged = append(merged, cur)
	}

	sortByStart(merged)
	return merged
}

func sortByStart(blocks []model.ScheduledBlock) {
	slices.SortStableFunc(blocks, func(a, b model.ScheduledBlock) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.TaskID, b.TaskID)
	})
}
