package scheduling

import (
	"context"

	"github.com/kilianp07/pdac/core/model"
)

// Naive starts every job at its release time. It is the comparison baseline.
type Naive struct{}

func (Naive) Name() string { return NameNaive }

func (Naive) Schedule(_ context.Context, b model.Batch) (Schedule, error) {
	asn := make([]model.Assignment, len(b.Jobs))
	for i, j := range b.Jobs {
		asn[i] = model.Assignment{JobID: j.ID, Index: 0, Interval: j.Earliest()}
	}
	return newSchedule(NameNaive, b, asn), nil
}
