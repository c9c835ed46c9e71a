package experiment

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/pdac/core/batch"
	"github.com/kilianp07/pdac/core/logger"
	"github.com/kilianp07/pdac/core/metrics"
	"github.com/kilianp07/pdac/core/model"
	"github.com/kilianp07/pdac/core/objective"
	"github.com/kilianp07/pdac/core/scheduling"
	"github.com/kilianp07/pdac/internal/eventbus"
)

// Builder returns a fresh strategy for one trial. seed is derived from the
// trial so randomized strategies are reproducible.
type Builder func(name string, seed uint64) (scheduling.Strategy, error)

// Runner draws batches from a job pool and evaluates every strategy on them.
type Runner struct {
	Pool       []batch.Record
	Window     batch.Window
	Resources  model.Curve
	ScaleRatio float64
	Shuffle    bool
	Build      Builder
	Sink       metrics.ResultSink
	// Events receives every trial result as soon as it is known. Optional.
	Events *eventbus.Bus[metrics.TrialResult]
	Log    logger.Logger
	// now is overridden in tests.
	now func() time.Time
}

// Report is the outcome of Run.
type Report struct {
	RunID     string
	Results   []metrics.TrialResult
	Summaries []metrics.Summary
}

// Run executes every trial of cfg. Strategy failures are recorded in the
// results; pool, batch and context errors abort the run and return the
// partial report.
func (r *Runner) Run(ctx context.Context, cfg Config) (Report, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if r.Build == nil {
		return Report{}, errors.New("runner has no strategy builder")
	}
	if r.Sink == nil {
		r.Sink = metrics.NopSink{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	res, err := r.window()
	if err != nil {
		return Report{}, err
	}

	rep := Report{RunID: uuid.NewString()}
	r.infof("run %s: sizes %v, %d trials, strategies %v", rep.RunID, cfg.BatchSizes.Values(), cfg.Trials, cfg.Strategies)
	for _, size := range cfg.BatchSizes.Values() {
		for trial := 0; trial < cfg.Trials; trial++ {
			if err := ctx.Err(); err != nil {
				rep.Summaries = Summarize(rep.RunID, rep.Results)
				return rep, err
			}
			out, err := r.trial(ctx, cfg, rep.RunID, res, size, trial)
			rep.Results = append(rep.Results, out...)
			if err != nil {
				rep.Summaries = Summarize(rep.RunID, rep.Results)
				return rep, fmt.Errorf("batch size %d trial %d: %w", size, trial, err)
			}
		}
	}
	rep.Summaries = Summarize(rep.RunID, rep.Results)
	if rec, ok := r.Sink.(metrics.SummaryRecorder); ok {
		if err := rec.RecordSummaries(rep.Summaries); err != nil {
			r.warnf("record summaries: %v", err)
		}
	}
	return rep, nil
}

// window slices the resource curve to the horizon of the batch window.
func (r *Runner) window() (model.Curve, error) {
	if err := r.Window.Validate(); err != nil {
		return nil, err
	}
	h := r.Window.Horizon()
	if len(r.Resources) < h {
		return nil, fmt.Errorf("%d resource steps do not cover a %d step window: %w", len(r.Resources), h, model.ErrInvalidCurve)
	}
	res := r.Resources[:h]
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// TrialSeed derives the seed of one trial from the run seed.
func TrialSeed(seed uint64, size, trial int) uint64 {
	return seed ^ (uint64(size) << 32) ^ uint64(trial)*0x9e3779b97f4a7c15
}

func strategySeed(seed uint64, name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return seed ^ h.Sum64()
}

// Batch draws and scales the batch a trial with the given seed would use.
func (r *Runner) Batch(size int, seed uint64) (model.Batch, error) {
	res, err := r.window()
	if err != nil {
		return model.Batch{}, err
	}
	return r.draw(res, size, seed)
}

func (r *Runner) draw(res model.Curve, size int, seed uint64) (model.Batch, error) {
	var rng *rand.Rand
	if r.Shuffle {
		rng = scheduling.NewRand(seed)
	}
	sel, err := batch.Draw(r.Pool, r.Window, size, rng)
	if err != nil {
		return model.Batch{}, err
	}
	jobs, factor := batch.Scale(sel.Jobs, res, r.ScaleRatio)
	b, err := model.NewBatch(jobs, res)
	if err != nil {
		return model.Batch{}, err
	}
	r.debugw("batch drawn", map[string]any{
		"batch_size": size,
		"scanned":    sel.Scanned,
		"infeasible": sel.Infeasible,
		"scale":      factor,
	})
	return b, nil
}

func (r *Runner) trial(ctx context.Context, cfg Config, runID string, res model.Curve, size, trial int) ([]metrics.TrialResult, error) {
	seed := TrialSeed(cfg.Seed, size, trial)
	b, err := r.draw(res, size, seed)
	if err != nil {
		return nil, err
	}

	outs, err := r.Compare(ctx, b, cfg.Strategies, seed, cfg.Parallel)
	if err != nil {
		return nil, err
	}
	results := make([]metrics.TrialResult, len(outs))
	for i, o := range outs {
		results[i] = o.Result
		results[i].RunID, results[i].BatchSize, results[i].Trial = runID, size, trial
		if r.Events != nil {
			r.Events.Publish(results[i])
		}
	}
	if err := r.Sink.RecordTrials(results); err != nil {
		r.warnf("record trials: %v", err)
	}
	return results, nil
}

// Outcome pairs a schedule with its evaluation.
type Outcome struct {
	Schedule scheduling.Schedule
	Result   metrics.TrialResult
}

// Compare runs the named strategies on b and keeps the order of names.
// Each strategy works on its own copy of the batch when parallel is set.
func (r *Runner) Compare(ctx context.Context, b model.Batch, names []string, seed uint64, parallel bool) ([]Outcome, error) {
	if r.Build == nil {
		return nil, errors.New("runner has no strategy builder")
	}
	if r.now == nil {
		r.now = time.Now
	}
	strategies := make([]scheduling.Strategy, len(names))
	for i, name := range names {
		s, err := r.Build(name, strategySeed(seed, name))
		if err != nil {
			return nil, err
		}
		strategies[i] = s
	}

	out := make([]Outcome, len(strategies))
	if !parallel {
		for i, s := range strategies {
			out[i] = r.evaluate(ctx, s, b)
		}
		return out, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range strategies {
		g.Go(func() error {
			out[i] = r.evaluate(gctx, s, b.Clone())
			return nil
		})
	}
	return out, g.Wait()
}

func (r *Runner) evaluate(ctx context.Context, s scheduling.Strategy, b model.Batch) Outcome {
	start := r.now()
	sched, err := s.Schedule(ctx, b)
	res := metrics.TrialResult{Strategy: s.Name(), Duration: r.now().Sub(start), Time: start}
	if err != nil {
		res.Error = err.Error()
		r.warnf("%s failed on %d jobs: %v", s.Name(), len(b.Jobs), err)
		return Outcome{Schedule: sched, Result: res}
	}
	score, err := objective.Evaluate(sched.Demand, b.Resources)
	if err != nil {
		res.Error = err.Error()
		return Outcome{Schedule: sched, Result: res}
	}
	res.Peak, res.Area = score.Peak, score.Area
	res.SolverObjective, res.Solved, res.FellBack = sched.SolverObjective, sched.Solved, sched.FellBack
	if sched.Solved {
		res.Status = sched.Status.String()
	}
	return Outcome{Schedule: sched, Result: res}
}

func (r *Runner) infof(format string, args ...any) {
	if r.Log != nil {
		r.Log.Infof(format, args...)
	}
}

func (r *Runner) warnf(format string, args ...any) {
	if r.Log != nil {
		r.Log.Warnf(format, args...)
	}
}

func (r *Runner) debugw(msg string, fields map[string]any) {
	if r.Log != nil {
		r.Log.Debugw(msg, fields)
	}
}
