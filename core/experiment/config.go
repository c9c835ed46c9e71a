package experiment

import (
	"fmt"

	"github.com/kilianp07/pdac/core/scheduling"
)

// Sizes is a range of batch sizes. End is exclusive.
type Sizes struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Step  int `json:"step"`
}

// Values expands the range. An End at or below Start yields Start alone.
func (s Sizes) Values() []int {
	if s.End <= s.Start {
		return []int{s.Start}
	}
	step := s.Step
	if step <= 0 {
		step = 1
	}
	var out []int
	for n := s.Start; n < s.End; n += step {
		out = append(out, n)
	}
	return out
}

// Config drives one experiment run.
type Config struct {
	BatchSizes Sizes    `json:"batch_sizes"`
	Trials     int      `json:"trials"`
	Seed       uint64   `json:"seed"`
	Strategies []string `json:"strategies"`
	// Parallel runs the strategies of one trial concurrently, each on its
	// own copy of the batch. It is off unless set.
	Parallel bool `json:"parallel"`
	// Output is the CSV file receiving every trial row. Empty disables it.
	Output string `json:"output"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.BatchSizes.Start <= 0 {
		c.BatchSizes.Start = 25
		if c.BatchSizes.End == 0 {
			c.BatchSizes.End = 125
		}
	}
	if c.BatchSizes.Step <= 0 {
		c.BatchSizes.Step = 25
	}
	if c.Trials <= 0 {
		c.Trials = 4
	}
	if len(c.Strategies) == 0 {
		c.Strategies = scheduling.Names()
	}
}

// Validate checks the run can be executed.
func (c Config) Validate() error {
	if c.BatchSizes.Start <= 0 {
		return fmt.Errorf("batch_sizes.start must be positive")
	}
	if c.Trials <= 0 {
		return fmt.Errorf("trials must be positive")
	}
	if len(c.Strategies) == 0 {
		return fmt.Errorf("at least one strategy is required")
	}
	known := make(map[string]bool)
	for _, n := range scheduling.Names() {
		known[n] = true
	}
	seen := make(map[string]bool)
	for _, s := range c.Strategies {
		if !known[s] {
			return fmt.Errorf("unknown strategy %q", s)
		}
		if seen[s] {
			return fmt.Errorf("strategy %q listed twice", s)
		}
		seen[s] = true
	}
	return nil
}
