package metrics

import (
	"github.com/kilianp07/powertask/core/events"
)

// Sink records scheduler events for observability purposes. Implementations
// must tolerate being called from the single scheduling goroutine only.
type Sink interface {
	RecordOutcome(ev events.TaskOutcome) error
	RecordAdmissionSkip(ev events.AdmissionSkip) error
	RecordQueueLength(n int) error
}

// RetryRecorder is implemented by sinks that track retry churn separately.
type RetryRecorder interface {
	RecordRetry(ev events.TaskRetried) error
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) RecordOutcome(events.TaskOutcome) error         { return nil }
func (NopSink) RecordAdmissionSkip(events.AdmissionSkip) error { return nil }
func (NopSink) RecordQueueLength(int) error                    { return nil }
