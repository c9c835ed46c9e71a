package metrics

import (
	"time"

	"github.com/kilianp07/pdac/core/factory"
)

// TrialResult is the outcome of one strategy on one drawn batch.
type TrialResult struct {
	RunID           string        `json:"run_id"`
	BatchSize       int           `json:"batch_size"`
	Trial           int           `json:"trial"`
	Strategy        string        `json:"strategy"`
	Peak            float64       `json:"peak"`
	Area            float64       `json:"area"`
	SolverObjective float64       `json:"solver_objective"`
	Solved          bool          `json:"solved"`
	Status          string        `json:"status,omitempty"`
	FellBack        bool          `json:"fell_back"`
	Duration        time.Duration `json:"duration"`
	Error           string        `json:"error,omitempty"`
	Time            time.Time     `json:"time"`
}

// Failed reports whether the strategy returned an error.
func (r TrialResult) Failed() bool { return r.Error != "" }

// ResultSink records trial results.
type ResultSink interface {
	RecordTrials(res []TrialResult) error
}

// Summary aggregates the trials of one strategy at one batch size.
type Summary struct {
	RunID     string  `json:"run_id"`
	BatchSize int     `json:"batch_size"`
	Strategy  string  `json:"strategy"`
	Trials    int     `json:"trials"`
	Failures  int     `json:"failures"`
	Fallbacks int     `json:"fallbacks"`
	MeanPeak  float64 `json:"mean_peak"`
	StdPeak   float64 `json:"std_peak"`
	MinPeak   float64 `json:"min_peak"`
	MaxPeak   float64 `json:"max_peak"`
	MeanArea  float64 `json:"mean_area"`
	MeanMS    float64 `json:"mean_ms"`
}

// SummaryRecorder is implemented by sinks able to store summaries.
type SummaryRecorder interface {
	RecordSummaries(s []Summary) error
}

// Closer is implemented by sinks holding connections or files.
type Closer interface {
	Close() error
}

// Config defines settings for result sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr enables the /metrics endpoint when set.
	PrometheusAddr string `json:"prometheus_addr"`
}

// NopSink implements ResultSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordTrials([]TrialResult) error { return nil }
func (NopSink) RecordSummaries([]Summary) error { return nil }
