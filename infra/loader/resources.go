package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kilianp07/pdac/core/model"
)

// SeriesOptions selects and expands the series of a resource file.
type SeriesOptions struct {
	// Series are the indices summed into the curve. Empty sums every series.
	Series []int
	// StepsPerPoint repeats each point that many times, e.g. 60 to turn
	// hourly values into minutes. Values below 1 mean 1.
	StepsPerPoint int
}

type seriesFile struct {
	Series []struct {
		Name string `json:"name"`
		Data []struct {
			Value *float64 `json:"value"`
		} `json:"data"`
	} `json:"series"`
}

// LoadResources reads a series file and returns the expanded curve.
func LoadResources(path string, opts SeriesOptions) (model.Curve, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	c, err := ReadResources(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ReadResources decodes {"series": [{"data": [{"value": v}, ...]}, ...]}.
// The selected series are summed point by point over their common length.
// Missing values count as zero.
func ReadResources(r io.Reader, opts SeriesOptions) (model.Curve, error) {
	var sf seriesFile
	if err := json.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}
	idx := opts.Series
	if len(idx) == 0 {
		idx = make([]int, len(sf.Series))
		for i := range idx {
			idx[i] = i
		}
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("no series in file: %w", model.ErrInvalidCurve)
	}
	points := -1
	for _, i := range idx {
		if i < 0 || i >= len(sf.Series) {
			return nil, fmt.Errorf("series %d out of range [0,%d)", i, len(sf.Series))
		}
		if n := len(sf.Series[i].Data); points < 0 || n < points {
			points = n
		}
	}
	steps := opts.StepsPerPoint
	if steps < 1 {
		steps = 1
	}
	out := make(model.Curve, points*steps)
	for p := 0; p < points; p++ {
		var sum float64
		for _, i := range idx {
			if v := sf.Series[i].Data[p].Value; v != nil {
				sum += *v
			}
		}
		for k := 0; k < steps; k++ {
			out[p*steps+k] = sum
		}
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Slice returns n steps of c starting at offset.
func Slice(c model.Curve, offset, n int) (model.Curve, error) {
	if offset < 0 || n <= 0 || offset+n > len(c) {
		return nil, fmt.Errorf("slice [%d,%d) of a %d step curve: %w", offset, offset+n, len(c), model.ErrInvalidCurve)
	}
	return c[offset : offset+n], nil
}
