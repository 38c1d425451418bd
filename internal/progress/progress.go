// Package progress derives a project's completion percentage from its
// kanban board and weighted milestone timeline.
package progress

import (
	"math"

	"projectflow/internal/models"
)

// Calculate returns the completion percentage of p in [0, 100].
//
// A closed project is always 100. Without milestones the result is the share
// of tasks in the done bucket. Otherwise each milestone contributes the done
// share of its own tasks scaled by weight/totalWeight, so weights that do not
// add up to exactly 100 are normalized. Tasks pointing at a milestone that is
// not on the timeline are ignored on the weighted path.
func Calculate(p models.Project) int {
	if p.Status == models.StatusClosed {
		return 100
	}

	all := p.Board.All()

	if len(p.Timeline) == 0 {
		if len(all) == 0 {
			return 0
		}
		return percent(float64(len(p.Board.Done)) / float64(len(all)))
	}

	totalWeight := 0
	for _, m := range p.Timeline {
		totalWeight += m.Weight
	}
	if totalWeight == 0 {
		return 0
	}

	done := make(map[int]struct{}, len(p.Board.Done))
	for _, t := range p.Board.Done {
		done[t.ID] = struct{}{}
	}

	var acc float64
	for _, m := range p.Timeline {
		var total, finished int
		for _, t := range all {
			if t.MilestoneID == nil || *t.MilestoneID != m.ID {
				continue
			}
			total++
			if _, ok := done[t.ID]; ok {
				finished++
			}
		}
		if total == 0 {
			continue
		}
		acc += float64(finished) / float64(total) * (float64(m.Weight) / float64(totalWeight))
	}

	return percent(acc)
}

func percent(fraction float64) int {
	v := int(math.Round(fraction * 100))
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
