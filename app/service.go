package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kilianp07/pdac/config"
	"github.com/kilianp07/pdac/core/experiment"
	coremetrics "github.com/kilianp07/pdac/core/metrics"
	"github.com/kilianp07/pdac/core/model"
	"github.com/kilianp07/pdac/core/scheduling"
	"github.com/kilianp07/pdac/infra/loader"
	"github.com/kilianp07/pdac/infra/logger"
	"github.com/kilianp07/pdac/infra/metrics"
	"github.com/kilianp07/pdac/infra/simplex"
	"github.com/kilianp07/pdac/internal/eventbus"
	"github.com/kilianp07/pdac/pkg/export"

	// Registers the "mqtt" result sink.
	_ "github.com/kilianp07/pdac/infra/mqtt"
)

// Service wires the data files, solver, strategies and sinks into a runner.
type Service struct {
	Runner *experiment.Runner
	cfg    *config.Config
	sink   coremetrics.ResultSink
	bus    *eventbus.Bus[coremetrics.TrialResult]
	log    logger.Logger
}

// New loads the job pool and resource curve and builds the runner.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	logg := logger.New("service")

	pool, err := loader.LoadJobs(cfg.Data.JobsPath)
	if err != nil {
		return nil, fmt.Errorf("job pool: %w", err)
	}
	curve, err := loader.LoadResources(cfg.Data.ResourcesPath, loader.SeriesOptions{
		Series:        cfg.Data.Series,
		StepsPerPoint: cfg.Data.StepsPerPoint,
	})
	if err != nil {
		return nil, fmt.Errorf("resources: %w", err)
	}
	w := cfg.Batch.Window()
	res, err := loader.Slice(curve, cfg.Data.Offset+w.Start, w.Horizon())
	if err != nil {
		return nil, fmt.Errorf("resources: %w", err)
	}

	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	bus := eventbus.New[coremetrics.TrialResult](0)
	runner := &experiment.Runner{
		Pool:       pool,
		Window:     w,
		Resources:  res,
		ScaleRatio: cfg.Batch.Ratio(),
		Shuffle:    cfg.Batch.ShuffleEnabled(),
		Build:      Builder(cfg.Solver),
		Sink:       sink,
		Events:     bus,
		Log:        logger.New("runner"),
	}
	logg.Infof("loaded %d pool jobs and a %d step resource window", len(pool), len(res))
	return &Service{Runner: runner, cfg: cfg, sink: sink, bus: bus, log: logg}, nil
}

// Builder returns the strategy builder configured by the solver section.
// All strategies share one solver, so solves abandoned on timeout count
// against max_in_flight instead of piling up.
func Builder(sc config.SolverConfig) experiment.Builder {
	lp := simplex.New(sc.Simplex(), logger.New("simplex"))
	return func(name string, seed uint64) (scheduling.Strategy, error) {
		return scheduling.New(name, scheduling.Options{
			Solver:    lp,
			Objective: sc.ObjectiveKind(),
			Fallback:  sc.FallbackEnabled(),
			Seed:      seed,
			Log:       logger.New(name),
		})
	}
}

// Run executes the configured experiment. The CSV output, when configured,
// is written even when the run stops early.
func (s *Service) Run(ctx context.Context) (experiment.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	progress := s.bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range progress {
			if r.Failed() {
				s.log.Warnf("size %d trial %d %s: %s", r.BatchSize, r.Trial, r.Strategy, r.Error)
				continue
			}
			s.log.Infow("trial", map[string]any{
				"batch_size":  r.BatchSize,
				"trial":       r.Trial,
				"strategy":    r.Strategy,
				"peak":        r.Peak,
				"area":        r.Area,
				"fell_back":   r.FellBack,
				"duration_ms": r.Duration.Milliseconds(),
			})
		}
	}()

	rep, err := s.Runner.Run(ctx, s.cfg.Experiment)
	s.bus.Unsubscribe(progress)
	<-done
	if out := s.cfg.Experiment.Output; out != "" && len(rep.Results) > 0 {
		if werr := writeResults(out, rep.Results); werr != nil {
			err = errors.Join(err, werr)
		} else {
			s.log.Infof("wrote %d results to %s", len(rep.Results), out)
		}
	}
	return rep, err
}

// Compare draws one batch and runs every configured strategy on it.
func (s *Service) Compare(ctx context.Context, size int, seed uint64) (model.Batch, []experiment.Outcome, error) {
	b, err := s.Runner.Batch(size, seed)
	if err != nil {
		return model.Batch{}, nil, err
	}
	outs, err := s.Runner.Compare(ctx, b, s.cfg.Experiment.Strategies, seed, s.cfg.Experiment.Parallel)
	return b, outs, err
}

func writeResults(path string, res []coremetrics.TrialResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteTrialsCSV(f, res, true); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Close releases the sinks and the event bus.
func (s *Service) Close() error {
	s.bus.Close()
	if c, ok := s.sink.(coremetrics.Closer); ok {
		return c.Close()
	}
	return nil
}
