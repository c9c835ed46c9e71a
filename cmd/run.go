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
	"github.com/kilianp07/pdac/infra/logger"
	"github.com/kilianp07/pdac/pkg/export"
)

var summaryJSON bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the experiment over every configured batch size",
	RunE:  runExperiment,
}

func init() {
	runCmd.Flags().BoolVar(&summaryJSON, "json", false, "print summaries as JSON")
	rootCmd.AddCommand(runCmd)
}

func runExperiment(cmd *cobra.Command, args []string) error {
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
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	rep, err := svc.Run(ctx)
	out := cmd.OutOrStdout()
	if summaryJSON {
		if werr := export.WriteJSON(out, rep.Summaries); werr != nil {
			return werr
		}
		return err
	}
	fmt.Fprintf(out, "run %s\n", rep.RunID)
	fmt.Fprintf(out, "%-6s %-8s %6s %10s %10s %10s %10s %9s\n", "size", "strategy", "trials", "mean_peak", "std_peak", "max_peak", "mean_area", "mean_ms")
	for _, s := range rep.Summaries {
		fmt.Fprintf(out, "%-6d %-8s %6d %10.3f %10.3f %10.3f %10.3f %9.1f\n",
			s.BatchSize, s.Strategy, s.Trials, s.MeanPeak, s.StdPeak, s.MaxPeak, s.MeanArea, s.MeanMS)
	}
	return err
}
