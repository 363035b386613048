package metrics

import "github.com/kilianp07/powertask/core/events"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordOutcome forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordOutcome(ev events.TaskOutcome) error {
	for _, s := range m.Sinks {
		if err := s.RecordOutcome(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordAdmissionSkip forwards admission skips.
func (m *MultiSink) RecordAdmissionSkip(ev events.AdmissionSkip) error {
	for _, s := range m.Sinks {
		if err := s.RecordAdmissionSkip(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordQueueLength forwards the queue length gauge.
func (m *MultiSink) RecordQueueLength(n int) error {
	for _, s := range m.Sinks {
		if err := s.RecordQueueLength(n); err != nil {
			return err
		}
	}
	return nil
}

// RecordRetry forwards retry events to sinks that track them.
func (m *MultiSink) RecordRetry(ev events.TaskRetried) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RetryRecorder); ok {
			if err := rec.RecordRetry(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
