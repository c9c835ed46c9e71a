package config

import (
	"fmt"

	"github.com/kilianp07/pdac/core/batch"
)

// DataConfig locates the job pool and resource curve files.
type DataConfig struct {
	JobsPath      string `json:"jobs_path"`
	ResourcesPath string `json:"resources_path"`
	// Series lists the resource series summed into the curve. Empty sums all.
	Series        []int `json:"series"`
	StepsPerPoint int   `json:"steps_per_point"`
	// Offset is the curve step aligned with batch.start_time.
	Offset int `json:"offset"`
}

func (c *DataConfig) SetDefaults() {
	if c.StepsPerPoint <= 0 {
		c.StepsPerPoint = 60
	}
}

func (c DataConfig) Validate() error {
	if c.JobsPath == "" {
		return fmt.Errorf("jobs_path is required")
	}
	if c.ResourcesPath == "" {
		return fmt.Errorf("resources_path is required")
	}
	if c.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	return nil
}

// BatchConfig selects which pool records may enter a batch.
type BatchConfig struct {
	StartTime int `json:"start_time"`
	EndTime   int `json:"end_time"`
	MaxLength int `json:"max_length"`
	// ScaleRatio sets the release-time peak relative to the curve maximum.
	// Zero disables scaling.
	ScaleRatio *float64 `json:"scale_ratio"`
	Shuffle    *bool    `json:"shuffle"`
}

func (c *BatchConfig) SetDefaults() {
	if c.EndTime == 0 && c.StartTime == 0 {
		c.EndTime = 1400
	}
	if c.MaxLength == 0 {
		c.MaxLength = 700
	}
	if c.ScaleRatio == nil {
		r := 2.0
		c.ScaleRatio = &r
	}
	if c.Shuffle == nil {
		s := true
		c.Shuffle = &s
	}
}

func (c BatchConfig) Validate() error {
	if err := c.Window().Validate(); err != nil {
		return err
	}
	if c.ScaleRatio != nil && *c.ScaleRatio < 0 {
		return fmt.Errorf("scale_ratio must not be negative")
	}
	return nil
}

// Window returns the batch window.
func (c BatchConfig) Window() batch.Window {
	return batch.Window{Start: c.StartTime, End: c.EndTime, MaxLength: c.MaxLength}
}

// Ratio returns the scale ratio, zero when unset.
func (c BatchConfig) Ratio() float64 {
	if c.ScaleRatio == nil {
		return 0
	}
	return *c.ScaleRatio
}

// ShuffleEnabled reports whether the pool is shuffled per trial.
func (c BatchConfig) ShuffleEnabled() bool {
	return c.Shuffle == nil || *c.Shuffle
}
