package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pdac/core/metrics"
	"github.com/kilianp07/pdac/core/model"
	"github.com/kilianp07/pdac/core/scheduling"
)

func TestWriteTrialsCSV(t *testing.T) {
	var buf bytes.Buffer
	res := []metrics.TrialResult{
		{RunID: "r1", BatchSize: 25, Trial: 0, Strategy: "exact", Peak: 1.5, Area: 3, SolverObjective: 1.5, Duration: 1200 * time.Millisecond, FellBack: true},
	}
	require.NoError(t, WriteTrialsCSV(&buf, res, true))
	want := "run_id,batch_size,trial,strategy,peak,area,solver_objective,duration_ms,fell_back\n" +
		"r1,25,0,exact,1.5,3,1.5,1200,true\n"
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, WriteTrialsCSV(&buf, res, false))
	assert.Equal(t, "r1,25,0,exact,1.5,3,1.5,1200,true\n", buf.String())
}

func TestWriteScheduleCSV(t *testing.T) {
	var buf bytes.Buffer
	s := scheduling.Schedule{
		Strategy: "greedy",
		Assignments: []model.Assignment{
			{JobID: 0, Index: 2, Interval: model.Interval{Start: 2, End: 4}},
			{JobID: 1, Index: 3, Interval: model.Interval{Start: 4, End: 5}},
		},
	}
	require.NoError(t, WriteScheduleCSV(&buf, s))
	want := "strategy,job_id,interval,start,end\ngreedy,0,2,2,4\ngreedy,1,3,4,5\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []metrics.Summary{{Strategy: "naive", Trials: 2}}))
	var got []metrics.Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "naive", got[0].Strategy)
}
