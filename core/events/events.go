package events

import (
	"time"

	"github.com/kilianp07/powertask/core/energy"
	"github.com/kilianp07/powertask/core/task"
	"github.com/kilianp07/powertask/core/telemetry"
)

// TaskOutcome is published when a task body has run and returned a
// non-retry result. Output is set when the result carries output to
// forward; consumers must treat the frame as read-only.
type TaskOutcome struct {
	TaskID   telemetry.TaskID
	Name     string
	Result   task.Result
	Output   *telemetry.Frame
	Duration time.Duration
}

// TaskRetried is published when a task asked to be rescheduled.
type TaskRetried struct {
	TaskID telemetry.TaskID
	Name   string
}

// AdmissionSkip is published when the cursor task was not admitted because
// the battery is below its declared minimum.
type AdmissionSkip struct {
	TaskID    telemetry.TaskID
	Name      string
	Need      energy.Joules
	Available energy.Joules
}

// TaskRunnable is published when a task is added to the runnable queue.
type TaskRunnable struct {
	TaskID telemetry.TaskID
	Name   string
}
