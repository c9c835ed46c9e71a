package experiment

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/pdac/core/metrics"
)

type summaryKey struct {
	size     int
	strategy string
}

// Summarize groups results by batch size and strategy, in first-seen order.
// Failed trials count towards Failures only.
func Summarize(runID string, results []metrics.TrialResult) []metrics.Summary {
	var order []summaryKey
	groups := make(map[summaryKey][]metrics.TrialResult)
	for _, r := range results {
		k := summaryKey{size: r.BatchSize, strategy: r.Strategy}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}
	out := make([]metrics.Summary, 0, len(order))
	for _, k := range order {
		out = append(out, summarize(runID, k, groups[k]))
	}
	return out
}

func summarize(runID string, k summaryKey, rs []metrics.TrialResult) metrics.Summary {
	s := metrics.Summary{RunID: runID, BatchSize: k.size, Strategy: k.strategy, Trials: len(rs)}
	var peaks, areas, ms []float64
	for _, r := range rs {
		if r.Failed() {
			s.Failures++
			continue
		}
		if r.FellBack {
			s.Fallbacks++
		}
		peaks = append(peaks, r.Peak)
		areas = append(areas, r.Area)
		ms = append(ms, float64(r.Duration.Microseconds())/1000)
	}
	if len(peaks) == 0 {
		return s
	}
	s.MeanPeak, s.StdPeak = stat.MeanStdDev(peaks, nil)
	if len(peaks) == 1 {
		s.StdPeak = 0
	}
	s.MinPeak, s.MaxPeak = floats.Min(peaks), floats.Max(peaks)
	s.MeanArea = stat.Mean(areas, nil)
	s.MeanMS = stat.Mean(ms, nil)
	return s
}
