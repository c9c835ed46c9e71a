package model

import (
	"errors"
	"fmt"
)

// ErrHorizon is returned when a job window extends past the resource curve.
var ErrHorizon = errors.New("job outside horizon")

// Batch is a validated set of jobs scheduled against one resource curve.
type Batch struct {
	Jobs      []Job
	Resources Curve
}

// NewBatch validates every job and the curve. Jobs must have unique ids and
// fit inside the horizon [0, len(resources)).
func NewBatch(jobs []Job, resources Curve) (Batch, error) {
	if err := resources.Validate(); err != nil {
		return Batch{}, err
	}
	seen := make(map[int]struct{}, len(jobs))
	for _, j := range jobs {
		if err := j.Validate(); err != nil {
			return Batch{}, err
		}
		if j.Deadline > len(resources) {
			return Batch{}, fmt.Errorf("job %d deadline %d > horizon %d: %w", j.ID, j.Deadline, len(resources), ErrHorizon)
		}
		if _, dup := seen[j.ID]; dup {
			return Batch{}, fmt.Errorf("duplicate job id %d", j.ID)
		}
		seen[j.ID] = struct{}{}
	}
	return Batch{Jobs: jobs, Resources: resources}, nil
}

// Horizon returns the number of time steps.
func (b Batch) Horizon() int { return len(b.Resources) }

// Clone returns a deep copy so concurrent strategies never share slices.
func (b Batch) Clone() Batch {
	jobs := make([]Job, len(b.Jobs))
	copy(jobs, b.Jobs)
	res := make(Curve, len(b.Resources))
	copy(res, b.Resources)
	return Batch{Jobs: jobs, Resources: res}
}

// Intervals enumerates the intervals of every job, indexed like Jobs.
func (b Batch) Intervals() [][]Interval {
	out := make([][]Interval, len(b.Jobs))
	for i, j := range b.Jobs {
		out[i] = j.Intervals()
	}
	return out
}

// TotalHeight sums the job heights.
func (b Batch) TotalHeight() float64 {
	var s float64
	for _, j := range b.Jobs {
		s += j.Height
	}
	return s
}

// Demand builds the demand profile produced by the given assignments.
func (b Batch) Demand(asn []Assignment) Profile {
	heights := make(map[int]float64, len(b.Jobs))
	for _, j := range b.Jobs {
		heights[j.ID] = j.Height
	}
	p := NewProfile(b.Horizon())
	for _, a := range asn {
		p.Add(a.Interval, heights[a.JobID])
	}
	return p
}
