package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/pdac/core/formulation"
	"github.com/kilianp07/pdac/infra/simplex"
)

// SolverConfig tunes the simplex solver and the solver strategies.
type SolverConfig struct {
	TimeoutSeconds       float64 `json:"timeout_seconds"`
	Tolerance            float64 `json:"tolerance"`
	IntegralityTolerance float64 `json:"integrality_tolerance"`
	MaxNodes             int     `json:"max_nodes"`
	// MaxInFlight bounds concurrent LP solves, counting timed out solves
	// that are still draining.
	MaxInFlight int `json:"max_in_flight"`
	// Objective is "peak" or "area".
	Objective string `json:"objective"`
	// Fallback replaces a timed out solve by the greedy schedule.
	Fallback *bool `json:"fallback"`
}

func (c *SolverConfig) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 60
	}
	if c.Tolerance == 0 {
		c.Tolerance = 1e-7
	}
	if c.IntegralityTolerance == 0 {
		c.IntegralityTolerance = 1e-6
	}
	if c.MaxNodes == 0 {
		c.MaxNodes = 10000
	}
	if c.MaxInFlight == 0 {
		c.MaxInFlight = 2
	}
	if c.Objective == "" {
		c.Objective = formulation.Peak.String()
	}
	if c.Fallback == nil {
		f := true
		c.Fallback = &f
	}
}

func (c SolverConfig) Validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	if c.Tolerance < 0 || c.IntegralityTolerance < 0 || c.IntegralityTolerance >= 0.5 {
		return fmt.Errorf("tolerances out of range")
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("max_nodes must not be negative")
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("max_in_flight must not be negative")
	}
	if _, err := formulation.ParseObjective(c.Objective); err != nil {
		return err
	}
	return nil
}

// Simplex converts the section to the solver configuration.
func (c SolverConfig) Simplex() simplex.Config {
	return simplex.Config{
		Tolerance:            c.Tolerance,
		IntegralityTolerance: c.IntegralityTolerance,
		MaxNodes:             c.MaxNodes,
		MaxInFlight:          c.MaxInFlight,
		Timeout:              time.Duration(c.TimeoutSeconds * float64(time.Second)),
	}
}

// ObjectiveKind parses Objective, defaulting to the peak form.
func (c SolverConfig) ObjectiveKind() formulation.Objective {
	o, err := formulation.ParseObjective(c.Objective)
	if err != nil {
		return formulation.Peak
	}
	return o
}

// FallbackEnabled reports whether timeouts fall back to greedy.
func (c SolverConfig) FallbackEnabled() bool {
	return c.Fallback == nil || *c.Fallback
}
