package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/pdac/core/metrics"
)

func TestPromSink_RecordTrials(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	res := []coremetrics.TrialResult{
		{Strategy: "greedy", BatchSize: 10, Peak: 1.5, Duration: 2 * time.Millisecond},
		{Strategy: "exact", BatchSize: 10, Peak: 0.5, FellBack: true, Duration: time.Second},
		{Strategy: "exact", BatchSize: 10, Error: "boom"},
	}
	if err := sink.RecordTrials(res); err != nil {
		t.Fatalf("record error: %v", err)
	}

	expected := `
# HELP pdac_strategy_runs_total Scheduling strategy runs by outcome
# TYPE pdac_strategy_runs_total counter
pdac_strategy_runs_total{status="error",strategy="exact"} 1
pdac_strategy_runs_total{status="fallback",strategy="exact"} 1
pdac_strategy_runs_total{status="ok",strategy="greedy"} 1
`
	if err := testutil.CollectAndCompare(sink.runs, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}

	expectedPeak := `
# HELP pdac_peak_excess Peak demand above the resource curve of the last trial
# TYPE pdac_peak_excess gauge
pdac_peak_excess{batch_size="10",strategy="exact"} 0.5
pdac_peak_excess{batch_size="10",strategy="greedy"} 1.5
`
	if err := testutil.CollectAndCompare(sink.peak, strings.NewReader(expectedPeak)); err != nil {
		t.Errorf("unexpected peak metric: %v", err)
	}
	if v := testutil.ToFloat64(sink.fallback.WithLabelValues("exact")); v != 1 {
		t.Errorf("expected 1 fallback, got %v", v)
	}
	if c := testutil.CollectAndCount(sink.duration); c != 2 {
		t.Errorf("expected 2 duration series, got %d", c)
	}
}

func TestPromSink_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	b, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	if err := b.RecordTrials([]coremetrics.TrialResult{{Strategy: "naive", BatchSize: 1}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if v := testutil.ToFloat64(a.runs.WithLabelValues("naive", "ok")); v != 1 {
		t.Fatalf("collectors not shared, got %v", v)
	}
}
