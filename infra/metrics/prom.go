package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/pdac/core/metrics"
)

// PromSink exposes trial results as Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	peak     *prometheus.GaugeVec
	fallback *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdac_strategy_runs_total",
		Help: "Scheduling strategy runs by outcome",
	}, []string{"strategy", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pdac_strategy_duration_seconds",
		Help:    "Wall time of a scheduling strategy on one batch",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"strategy"})
	peak := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pdac_peak_excess",
		Help: "Peak demand above the resource curve of the last trial",
	}, []string{"strategy", "batch_size"})
	fallback := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdac_fallback_total",
		Help: "Solver runs replaced by the greedy schedule",
	}, []string{"strategy"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if peak, err = register(reg, peak); err != nil {
		return nil, err
	}
	if fallback, err = register(reg, fallback); err != nil {
		return nil, err
	}
	return &PromSink{runs: runs, duration: duration, peak: peak, fallback: fallback}, nil
}

// register reuses an existing collector when the same metric was already
// registered, so several sinks can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordTrials updates counters, the duration histogram and the peak gauge.
func (s *PromSink) RecordTrials(res []coremetrics.TrialResult) error {
	for _, r := range res {
		status := "ok"
		switch {
		case r.Failed():
			status = "error"
		case r.FellBack:
			status = "fallback"
		}
		s.runs.WithLabelValues(r.Strategy, status).Inc()
		s.duration.WithLabelValues(r.Strategy).Observe(r.Duration.Seconds())
		if r.FellBack {
			s.fallback.WithLabelValues(r.Strategy).Inc()
		}
		if !r.Failed() {
			s.peak.WithLabelValues(r.Strategy, strconv.Itoa(r.BatchSize)).Set(r.Peak)
		}
	}
	return nil
}
