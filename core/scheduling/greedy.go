package scheduling

import (
	"context"
	"fmt"
	"sort"

	"github.com/kilianp07/pdac/core/model"
)

// Greedy places jobs least flexible first. Each job takes the interval that
// maximises the summed margin resource - demand - height over its steps,
// given the jobs already placed. There is no backtracking.
type Greedy struct{}

func (Greedy) Name() string { return NameGreedy }

func (Greedy) Schedule(_ context.Context, b model.Batch) (Schedule, error) {
	order := make([]int, len(b.Jobs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return b.Jobs[order[x]].Flexibility() < b.Jobs[order[y]].Flexibility()
	})

	demand := model.NewProfile(b.Horizon())
	asn := make([]model.Assignment, len(b.Jobs))
	for _, idx := range order {
		j := b.Jobs[idx]
		ivs := j.Intervals()
		if len(ivs) == 0 {
			return Schedule{}, fmt.Errorf("job %d: %w", j.ID, model.ErrInfeasibleJob)
		}
		best, bestScore := 0, margin(b.Resources, demand, ivs[0], j.Height)
		for i := 1; i < len(ivs); i++ {
			if s := margin(b.Resources, demand, ivs[i], j.Height); s > bestScore {
				best, bestScore = i, s
			}
		}
		demand.Add(ivs[best], j.Height)
		asn[idx] = model.Assignment{JobID: j.ID, Index: best, Interval: ivs[best]}
	}
	return Schedule{Strategy: NameGreedy, Assignments: asn, Demand: demand}, nil
}

func margin(res model.Curve, demand model.Profile, iv model.Interval, h float64) float64 {
	var s float64
	for t := iv.Start; t < iv.End; t++ {
		s += res[t] - demand[t] - h
	}
	return s
}
