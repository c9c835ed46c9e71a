package batch

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/kilianp07/pdac/core/model"
)

// ErrPoolExhausted is returned when the pool holds fewer eligible records
// than the requested batch size.
var ErrPoolExhausted = errors.New("job pool exhausted")

// Record is one job entry of a source pool, in absolute time units.
type Record struct {
	ID       string  `json:"id"`
	Release  int     `json:"release"`
	Deadline int     `json:"deadline"`
	Length   int     `json:"length"`
	Height   float64 `json:"height"`
}

// Window restricts which records may enter a batch. Jobs must be released at
// or after Start and finish by End. MaxLength <= 0 disables the length limit.
type Window struct {
	Start     int `json:"start_time"`
	End       int `json:"end_time"`
	MaxLength int `json:"max_length"`
}

// Validate checks that the window is non-empty.
func (w Window) Validate() error {
	if w.End <= w.Start {
		return fmt.Errorf("window end %d must be after start %d", w.End, w.Start)
	}
	return nil
}

// Horizon is the number of time steps in the window.
func (w Window) Horizon() int { return w.End - w.Start }

func (w Window) admits(r Record) bool {
	if r.Release < w.Start || r.Deadline > w.End {
		return false
	}
	return w.MaxLength <= 0 || r.Length <= w.MaxLength
}

// Selection is a drawn batch of jobs normalised to window offsets.
type Selection struct {
	Jobs []model.Job
	// SourceIDs[i] is the pool id of Jobs[i].
	SourceIDs []string
	// Scanned counts pool records examined, Infeasible those inside the window
	// that could not fit their duration.
	Scanned    int
	Infeasible int
}

// Draw takes the first size records admitted by w, shuffling a copy of the
// pool first when rng is non-nil. Jobs get ids 0..size-1 and times relative
// to w.Start. Records without a feasible interval are skipped.
func Draw(pool []Record, w Window, size int, rng *rand.Rand) (Selection, error) {
	if err := w.Validate(); err != nil {
		return Selection{}, err
	}
	if size <= 0 {
		return Selection{}, fmt.Errorf("batch size %d must be positive", size)
	}
	order := make([]int, len(pool))
	for i := range order {
		order[i] = i
	}
	if rng != nil {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	sel := Selection{Jobs: make([]model.Job, 0, size), SourceIDs: make([]string, 0, size)}
	for _, idx := range order {
		if len(sel.Jobs) == size {
			break
		}
		sel.Scanned++
		r := pool[idx]
		if !w.admits(r) {
			continue
		}
		j, err := model.NewJob(len(sel.Jobs), r.Release-w.Start, r.Deadline-w.Start, r.Length, r.Height)
		if err != nil {
			sel.Infeasible++
			continue
		}
		sel.Jobs = append(sel.Jobs, j)
		sel.SourceIDs = append(sel.SourceIDs, r.ID)
	}
	if len(sel.Jobs) < size {
		return sel, fmt.Errorf("%d of %d jobs after scanning %d records: %w", len(sel.Jobs), size, sel.Scanned, ErrPoolExhausted)
	}
	return sel, nil
}

// Scale multiplies every height so that the release-time schedule peaks at
// ratio times the largest resource value. It returns the scaled copy and the
// factor applied. A non-positive ratio or an all-zero schedule leaves heights
// unchanged.
func Scale(jobs []model.Job, res model.Curve, ratio float64) ([]model.Job, float64) {
	out := make([]model.Job, len(jobs))
	copy(out, jobs)
	if ratio <= 0 {
		return out, 1
	}
	naive := model.NewProfile(len(res))
	for _, j := range jobs {
		naive.Add(j.Earliest(), j.Height)
	}
	peak := naive.Max()
	if peak == 0 {
		return out, 1
	}
	factor := ratio * res.Max() / peak
	for i := range out {
		out[i].Height *= factor
	}
	return out, factor
}
