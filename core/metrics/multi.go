package metrics

import "errors"

// MultiSink fans out results to multiple sinks.
type MultiSink struct {
	Sinks []ResultSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...ResultSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTrials forwards the records to every sink. All sinks are tried and
// their errors joined.
func (m *MultiSink) RecordTrials(res []TrialResult) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordTrials(res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordSummaries forwards summaries to sinks that support them.
func (m *MultiSink) RecordSummaries(sum []Summary) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(SummaryRecorder); ok {
			if err := rec.RecordSummaries(sum); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink holding resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
