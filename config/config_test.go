package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pdac/core/formulation"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `data:
  jobs_path: "jobs.json"
  resources_path: "solar.json"
  series: [1, 2, 3]
  offset: 72
batch:
  start_time: 0
  end_time: 600
  max_length: 300
  scale_ratio: 0
  shuffle: false
experiment:
  batch_sizes:
    start: 5
    end: 20
    step: 5
  trials: 3
  seed: 11
  strategies: ["greedy", "exact"]
  parallel: true
solver:
  timeout_seconds: 2.5
  objective: area
  fallback: false
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: "jsonl"
      conf:
        path: "trials.jsonl"
logging:
  level: DEBUG
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, cfg.Data.Series)
	assert.Equal(t, 60, cfg.Data.StepsPerPoint)
	assert.Equal(t, 72, cfg.Data.Offset)
	assert.Equal(t, 600, cfg.Batch.Window().End)
	assert.Equal(t, 0.0, cfg.Batch.Ratio())
	assert.False(t, cfg.Batch.ShuffleEnabled())
	assert.Equal(t, []int{5, 10, 15}, cfg.Experiment.BatchSizes.Values())
	assert.Equal(t, uint64(11), cfg.Experiment.Seed)
	assert.True(t, cfg.Experiment.Parallel)
	assert.Equal(t, formulation.Area, cfg.Solver.ObjectiveKind())
	assert.False(t, cfg.Solver.FallbackEnabled())
	assert.Equal(t, 2500*time.Millisecond, cfg.Solver.Simplex().Timeout)
	assert.Equal(t, 10000, cfg.Solver.Simplex().MaxNodes)
	assert.Equal(t, ":9100", cfg.Metrics.PrometheusAddr)
	require.Len(t, cfg.Metrics.Sinks, 1)
	assert.Equal(t, "jsonl", cfg.Metrics.Sinks[0].Type)
	assert.Equal(t, "trials.jsonl", cfg.Metrics.Sinks[0].Conf["path"])
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{"data": {"jobs_path": "j.json", "resources_path": "r.json"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1400, cfg.Batch.EndTime)
	assert.Equal(t, 700, cfg.Batch.MaxLength)
	assert.Equal(t, 2.0, cfg.Batch.Ratio())
	assert.True(t, cfg.Batch.ShuffleEnabled())
	assert.Equal(t, 4, cfg.Experiment.Trials)
	assert.Equal(t, 60*time.Second, cfg.Solver.Simplex().Timeout)
	assert.Equal(t, formulation.Peak, cfg.Solver.ObjectiveKind())
	assert.True(t, cfg.Solver.FallbackEnabled())
	assert.Equal(t, 2, cfg.Solver.Simplex().MaxInFlight)
	assert.False(t, cfg.Experiment.Parallel)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"data": {"jobs_path": "j.json", "resources_path": "r.json"}}`)
	t.Setenv("PDAC_SOLVER__MAX_NODES", "50")
	t.Setenv("PDAC_DATA__JOBS_PATH", "pool.json")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Solver.MaxNodes)
	assert.Equal(t, "pool.json", cfg.Data.JobsPath)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "config.toml", ""))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "config.json", `{"data": {"resources_path": "r.json"}}`))
	assert.ErrorContains(t, err, "jobs_path")

	_, err = Load(writeConfig(t, "config.json", `{"data": {"jobs_path": "j", "resources_path": "r"}, "solver": {"objective": "makespan"}}`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "config.json", `{"data": {"jobs_path": "j", "resources_path": "r"}, "logging": {"level": "trace"}}`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "config.json", `{"data": {"jobs_path": "j", "resources_path": "r"}, "batch": {"start_time": 10, "end_time": 5}}`))
	assert.Error(t, err)
}
