package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/pdac/core/metrics"
	"github.com/kilianp07/pdac/core/scheduling"
)

// TrialHeader is the column order of WriteTrialsCSV.
var TrialHeader = []string{"run_id", "batch_size", "trial", "strategy", "peak", "area", "solver_objective", "duration_ms", "fell_back"}

// WriteTrialsCSV writes one row per trial result, header first when header
// is true.
func WriteTrialsCSV(w io.Writer, res []metrics.TrialResult, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(TrialHeader); err != nil {
			return err
		}
	}
	for _, r := range res {
		rec := []string{
			r.RunID,
			strconv.Itoa(r.BatchSize),
			strconv.Itoa(r.Trial),
			r.Strategy,
			formatFloat(r.Peak),
			formatFloat(r.Area),
			formatFloat(r.SolverObjective),
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			strconv.FormatBool(r.FellBack),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteScheduleCSV writes the chosen interval of every job.
func WriteScheduleCSV(w io.Writer, s scheduling.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"strategy", "job_id", "interval", "start", "end"}); err != nil {
		return err
	}
	for _, a := range s.Assignments {
		rec := []string{
			s.Strategy,
			strconv.Itoa(a.JobID),
			strconv.Itoa(a.Index),
			strconv.Itoa(a.Interval.Start),
			strconv.Itoa(a.Interval.End),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
