package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatchValidation(t *testing.T) {
	jobs := []Job{{ID: 0, Release: 0, Deadline: 4, Duration: 2, Height: 1}}
	_, err := NewBatch(jobs, Curve{})
	assert.ErrorIs(t, err, ErrInvalidCurve)

	_, err = NewBatch(jobs, Curve{1, -1, 1, 1})
	assert.ErrorIs(t, err, ErrInvalidCurve)

	_, err = NewBatch(jobs, Curve{1, 1, 1})
	assert.ErrorIs(t, err, ErrHorizon)

	_, err = NewBatch([]Job{{ID: 0, Release: 1, Deadline: 2, Duration: 2, Height: 1}}, Curve{1, 1, 1})
	assert.ErrorIs(t, err, ErrInfeasibleJob)

	_, err = NewBatch(append(jobs, jobs[0]), Curve{1, 1, 1, 1})
	assert.Error(t, err)

	b, err := NewBatch(jobs, Curve{1, 1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 4, b.Horizon())
}

func TestBatchCloneIsolated(t *testing.T) {
	b := Batch{Jobs: []Job{{ID: 0, Release: 0, Deadline: 2, Duration: 1, Height: 1}}, Resources: Curve{1, 2}}
	c := b.Clone()
	c.Jobs[0].Height = 9
	c.Resources[0] = 9
	assert.Equal(t, 1.0, b.Jobs[0].Height)
	assert.Equal(t, 1.0, b.Resources[0])
}

func TestBatchDemand(t *testing.T) {
	b := Batch{
		Jobs: []Job{
			{ID: 0, Release: 0, Deadline: 4, Duration: 2, Height: 1},
			{ID: 1, Release: 1, Deadline: 6, Duration: 1, Height: 2},
		},
		Resources: Curve{0, 1, 1, 3, 4, 3},
	}
	d := b.Demand([]Assignment{
		{JobID: 0, Interval: Interval{0, 2}},
		{JobID: 1, Interval: Interval{1, 2}},
	})
	assert.Equal(t, Profile{1, 3, 0, 0, 0, 0}, d)
	assert.Equal(t, 3.0, d.Max())
	assert.Equal(t, 3.0, b.TotalHeight())
	assert.Equal(t, 4.0, b.Resources.Max())
}
