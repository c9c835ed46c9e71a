package metrics

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/pdac/core/metrics"
)

func TestJSONLSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.RecordTrials([]coremetrics.TrialResult{
		{RunID: "r", Strategy: "naive", Peak: 2},
		{RunID: "r", Strategy: "greedy", Peak: 0},
	}))
	require.NoError(t, sink.RecordSummaries([]coremetrics.Summary{{RunID: "r", Strategy: "naive", Trials: 1}}))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	var kinds []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec jsonlRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		kinds = append(kinds, rec.Kind)
	}
	assert.Equal(t, []string{"trial", "trial", "summary"}, kinds)
}

func TestJSONLSinkEmptyPath(t *testing.T) {
	_, err := NewJSONLSink("")
	assert.Error(t, err)
}
