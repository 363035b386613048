package task

import (
	"github.com/kilianp07/powertask/core/energy"
	"github.com/kilianp07/powertask/core/telemetry"
)

// Func is the body of a task. It reads the input frame, writes the output
// frame and reports a Result. Bodies run to completion within a single
// scheduling step; work that spans multiple steps must track its own
// progress (typically in its output frame) and return Again.
type Func func(input, output *telemetry.Frame) Result

// Descriptor holds the constant attributes of a task. Descriptors are
// supplied by the application at startup and never mutated afterwards.
type Descriptor struct {
	// ID uniquely identifies the task. See telemetry.IsApplicationID for
	// the range convention.
	ID telemetry.TaskID
	// Name is a short human-readable label used in diagnostics only.
	Name string
	// MinimumEnergy is the battery energy required before the scheduler
	// admits the task.
	MinimumEnergy energy.Joules
	// Run executes the task.
	Run Func
	// InputLength and OutputLength are the declared telemetry payload
	// sizes in bytes. Frames of exactly these sizes are allocated the
	// first time the task becomes runnable.
	InputLength  uint16
	OutputLength uint16
}
