package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCurve is returned for empty curves or curves with negative values.
var ErrInvalidCurve = errors.New("invalid resource curve")

// Curve is the available resource per time step. It is read-only once a batch
// has been built.
type Curve []float64

// Validate checks that the curve is non-empty and non-negative.
func (c Curve) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("zero-length horizon: %w", ErrInvalidCurve)
	}
	for t, v := range c {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("step %d value %v: %w", t, v, ErrInvalidCurve)
		}
	}
	return nil
}

// Max returns the largest value of the curve.
func (c Curve) Max() float64 {
	m := 0.0
	for _, v := range c {
		if v > m {
			m = v
		}
	}
	return m
}

// Profile is the scheduled demand per time step.
type Profile []float64

// NewProfile returns an all-zero profile of the given horizon.
func NewProfile(steps int) Profile { return make(Profile, steps) }

// Add accumulates height over the steps covered by iv. Steps outside the
// profile are ignored.
func (p Profile) Add(iv Interval, height float64) {
	start, end := iv.Start, iv.End
	if start < 0 {
		start = 0
	}
	if end > len(p) {
		end = len(p)
	}
	for t := start; t < end; t++ {
		p[t] += height
	}
}

// Max returns the peak demand.
func (p Profile) Max() float64 {
	m := 0.0
	for _, v := range p {
		if v > m {
			m = v
		}
	}
	return m
}
