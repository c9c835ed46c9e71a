package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pdac/core/batch"
	"github.com/kilianp07/pdac/core/model"
)

func TestLoadJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	data := `{"jobs": [
		{"release": 0, "deadline": 10, "length": 3, "height": 2.5},
		{"id": 42, "release": 5, "deadline": 9, "duration": 2, "height": 1}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	recs, err := LoadJobs(path)
	require.NoError(t, err)
	assert.Equal(t, []batch.Record{
		{ID: "0", Release: 0, Deadline: 10, Length: 3, Height: 2.5},
		{ID: "42", Release: 5, Deadline: 9, Length: 2, Height: 1},
	}, recs)
}

func TestReadJobsErrors(t *testing.T) {
	_, err := ReadJobs(strings.NewReader(`{"jobs": []}`))
	assert.Error(t, err)
	_, err = ReadJobs(strings.NewReader(`not json`))
	assert.Error(t, err)
	_, err = LoadJobs(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

const seriesJSON = `{"series": [
	{"name": "load", "data": [{"value": 100}, {"value": 100}, {"value": 100}]},
	{"name": "wind", "data": [{"value": 1}, {"value": 2}, {"value": 3}]},
	{"name": "solar", "data": [{"value": 0}, {"value": null}, {"value": 4}, {"value": 9}]}
]}`

func TestReadResources(t *testing.T) {
	c, err := ReadResources(strings.NewReader(seriesJSON), SeriesOptions{Series: []int{1, 2}, StepsPerPoint: 2})
	require.NoError(t, err)
	assert.Equal(t, model.Curve{1, 1, 2, 2, 7, 7}, c)

	c, err = ReadResources(strings.NewReader(seriesJSON), SeriesOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.Curve{101, 102, 107}, c)
}

func TestReadResourcesErrors(t *testing.T) {
	_, err := ReadResources(strings.NewReader(seriesJSON), SeriesOptions{Series: []int{3}})
	assert.Error(t, err)
	_, err = ReadResources(strings.NewReader(`{"series": []}`), SeriesOptions{})
	assert.ErrorIs(t, err, model.ErrInvalidCurve)
	_, err = ReadResources(strings.NewReader(`{"series": [{"data": [{"value": -1}]}]}`), SeriesOptions{})
	assert.ErrorIs(t, err, model.ErrInvalidCurve)
}

func TestLoadResources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solar.json")
	require.NoError(t, os.WriteFile(path, []byte(seriesJSON), 0o644))
	c, err := LoadResources(path, SeriesOptions{Series: []int{1}, StepsPerPoint: 60})
	require.NoError(t, err)
	assert.Len(t, c, 180)
	assert.Equal(t, 2.0, c[60])
}

func TestSlice(t *testing.T) {
	c := model.Curve{0, 1, 2, 3, 4}
	s, err := Slice(c, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, model.Curve{1, 2, 3}, s)
	_, err = Slice(c, 3, 3)
	assert.ErrorIs(t, err, model.ErrInvalidCurve)
	_, err = Slice(c, -1, 2)
	assert.Error(t, err)
}
