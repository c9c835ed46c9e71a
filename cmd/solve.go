package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pdac/app"
	"github.com/kilianp07/pdac/config"
	"github.com/kilianp07/pdac/pkg/export"
)

var (
	solveSize      int
	solveSeed      uint64
	solveSchedules bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Draw one batch and compare the strategies on it",
	RunE:  solveBatch,
}

func init() {
	solveCmd.Flags().IntVarP(&solveSize, "size", "n", 25, "batch size")
	solveCmd.Flags().Uint64Var(&solveSeed, "seed", 0, "draw seed")
	solveCmd.Flags().BoolVar(&solveSchedules, "schedules", false, "print the chosen interval of every job")
	rootCmd.AddCommand(solveCmd)
}

func solveBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	b, outs, err := svc.Compare(ctx, solveSize, solveSeed)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d jobs over %d steps, total height %.3f\n", len(b.Jobs), b.Horizon(), b.TotalHeight())
	for _, o := range outs {
		r := o.Result
		if r.Failed() {
			fmt.Fprintf(out, "%-8s error: %s\n", r.Strategy, r.Error)
			continue
		}
		fb := ""
		if r.FellBack {
			fb = " (fell back to greedy)"
		}
		fmt.Fprintf(out, "%-8s peak %10.3f  area %12.3f  solver %10.3f  %s%s\n",
			r.Strategy, r.Peak, r.Area, r.SolverObjective, r.Duration, fb)
	}
	if solveSchedules {
		for _, o := range outs {
			if o.Result.Failed() {
				continue
			}
			if err := export.WriteScheduleCSV(out, o.Schedule); err != nil {
				return err
			}
		}
	}
	return nil
}
