package metrics

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	coremetrics "github.com/kilianp07/pdac/core/metrics"
)

// JSONLSink appends one JSON object per trial to a file.
type JSONLSink struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

type jsonlRecord struct {
	Kind    string                   `json:"kind"`
	Trial   *coremetrics.TrialResult `json:"trial,omitempty"`
	Summary *coremetrics.Summary     `json:"summary,omitempty"`
}

// NewJSONLSink opens path for appending, creating it when missing.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if path == "" {
		return nil, errors.New("jsonl sink: empty path")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{f: f, enc: json.NewEncoder(f)}, nil
}

// RecordTrials appends every result as a "trial" line.
func (s *JSONLSink) RecordTrials(res []coremetrics.TrialResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range res {
		if err := s.enc.Encode(jsonlRecord{Kind: "trial", Trial: &res[i]}); err != nil {
			return err
		}
	}
	return nil
}

// RecordSummaries appends every summary as a "summary" line.
func (s *JSONLSink) RecordSummaries(sum []coremetrics.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range sum {
		if err := s.enc.Encode(jsonlRecord{Kind: "summary", Summary: &sum[i]}); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the file.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
