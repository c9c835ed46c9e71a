package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kilianp07/pdac/core/batch"
)

type jobFile struct {
	Jobs []jobEntry `json:"jobs"`
}

// jobEntry accepts both the extracted pool format (length) and the raw
// instance format (duration).
type jobEntry struct {
	ID       any     `json:"id"`
	Release  int     `json:"release"`
	Deadline int     `json:"deadline"`
	Length   int     `json:"length"`
	Duration int     `json:"duration"`
	Height   float64 `json:"height"`
}

// LoadJobs reads a job pool file of the form {"jobs": [...]}.
func LoadJobs(path string) ([]batch.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	recs, err := ReadJobs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// ReadJobs decodes a job pool. Records without an id are named after their
// position in the file.
func ReadJobs(r io.Reader) ([]batch.Record, error) {
	var jf jobFile
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&jf); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	if len(jf.Jobs) == 0 {
		return nil, fmt.Errorf("job pool is empty")
	}
	out := make([]batch.Record, len(jf.Jobs))
	for i, e := range jf.Jobs {
		id := strconv.Itoa(i)
		if e.ID != nil {
			id = fmt.Sprint(e.ID)
		}
		length := e.Length
		if length == 0 {
			length = e.Duration
		}
		out[i] = batch.Record{ID: id, Release: e.Release, Deadline: e.Deadline, Length: length, Height: e.Height}
	}
	return out, nil
}
