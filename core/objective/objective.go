// Package objective evaluates demand profiles against a resource curve.
package objective

import (
	"errors"
	"fmt"

	"github.com/kilianp07/pdac/core/model"
)

// ErrLengthMismatch is returned when demand and resources differ in length.
var ErrLengthMismatch = errors.New("demand and resource length mismatch")

// Excess returns demand[t] - resource[t] for every step. Values may be negative.
func Excess(demand model.Profile, resources model.Curve) ([]float64, error) {
	if len(demand) != len(resources) {
		return nil, fmt.Errorf("%d vs %d: %w", len(demand), len(resources), ErrLengthMismatch)
	}
	out := make([]float64, len(demand))
	for t := range demand {
		out[t] = demand[t] - resources[t]
	}
	return out, nil
}

// Peak is the peak demand above curve: max over t of max(0, demand-resource).
func Peak(demand model.Profile, resources model.Curve) (float64, error) {
	ex, err := Excess(demand, resources)
	if err != nil {
		return 0, err
	}
	peak := 0.0
	for _, v := range ex {
		if v > peak {
			peak = v
		}
	}
	return peak, nil
}

// Area is the total demand above curve summed over the horizon.
func Area(demand model.Profile, resources model.Curve) (float64, error) {
	ex, err := Excess(demand, resources)
	if err != nil {
		return 0, err
	}
	var area float64
	for _, v := range ex {
		if v > 0 {
			area += v
		}
	}
	return area, nil
}

// Score bundles both metrics of one schedule.
type Score struct {
	Peak float64 `json:"peak"`
	Area float64 `json:"area"`
}

// Evaluate computes Peak and Area in one call.
func Evaluate(demand model.Profile, resources model.Curve) (Score, error) {
	p, err := Peak(demand, resources)
	if err != nil {
		return Score{}, err
	}
	a, err := Area(demand, resources)
	if err != nil {
		return Score{}, err
	}
	return Score{Peak: p, Area: a}, nil
}
