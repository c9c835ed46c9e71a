package model

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInfeasibleJob is returned when a job cannot fit its duration between
	// release and deadline.
	ErrInfeasibleJob = errors.New("infeasible job")
	// ErrInvalidHeight is returned for negative or non-finite heights.
	ErrInvalidHeight = errors.New("invalid job height")
)

// Job is a deadline-constrained task drawing a constant power (Height) while it
// runs. Release and Deadline are offsets from the start of the horizon.
type Job struct {
	ID       int     `json:"id"`
	Release  int     `json:"release"`
	Deadline int     `json:"deadline"`
	Duration int     `json:"duration"`
	Height   float64 `json:"height"`
}

// NewJob builds a job and checks that it has at least one feasible interval.
func NewJob(id, release, deadline, duration int, height float64) (Job, error) {
	j := Job{ID: id, Release: release, Deadline: deadline, Duration: duration, Height: height}
	if err := j.Validate(); err != nil {
		return Job{}, err
	}
	return j, nil
}

// Validate checks the job invariant release+duration <= deadline.
func (j Job) Validate() error {
	if j.Duration <= 0 {
		return fmt.Errorf("job %d: duration %d: %w", j.ID, j.Duration, ErrInfeasibleJob)
	}
	if j.Release < 0 {
		return fmt.Errorf("job %d: negative release %d: %w", j.ID, j.Release, ErrInfeasibleJob)
	}
	if j.Release+j.Duration > j.Deadline {
		return fmt.Errorf("job %d: window [%d,%d) shorter than duration %d: %w",
			j.ID, j.Release, j.Deadline, j.Duration, ErrInfeasibleJob)
	}
	if j.Height < 0 || math.IsNaN(j.Height) || math.IsInf(j.Height, 0) {
		return fmt.Errorf("job %d: height %v: %w", j.ID, j.Height, ErrInvalidHeight)
	}
	return nil
}

// Flexibility is the number of extra start offsets beyond the first one.
// Zero means the job has exactly one feasible interval.
func (j Job) Flexibility() int { return j.Deadline - j.Release - j.Duration }

// Earliest returns the interval starting at the release time.
func (j Job) Earliest() Interval {
	return Interval{Start: j.Release, End: j.Release + j.Duration}
}

// Intervals enumerates every feasible execution interval of the job in
// ascending start order. It returns nil when the job is infeasible.
func (j Job) Intervals() []Interval {
	n := j.Flexibility() + 1
	if j.Duration <= 0 || n <= 0 {
		return nil
	}
	out := make([]Interval, n)
	for i := range out {
		s := j.Release + i
		out[i] = Interval{Start: s, End: s + j.Duration}
	}
	return out
}

// Interval is a half-open execution window [Start, End).
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of time steps covered.
func (iv Interval) Len() int { return iv.End - iv.Start }

// Covers reports whether time step t lies in [Start, End).
func (iv Interval) Covers(t int) bool { return iv.Start <= t && t < iv.End }

func (iv Interval) String() string { return fmt.Sprintf("[%d,%d)", iv.Start, iv.End) }

// Assignment is a job placed in one of its intervals.
type Assignment struct {
	JobID    int      `json:"job_id"`
	Index    int      `json:"index"`
	Interval Interval `json:"interval"`
}
