package task

import "fmt"

// The scheduler classifies task results by the 16-bit code space inherited
// from the flight telemetry format. Codes below codeFirst or at codeLast and
// above are invalid; the failure ranges carry a 12-bit reason in their low
// bits.
const (
	codeFirst      uint16 = 0x1000
	codeCompleted  uint16 = 0x1001
	codeRetry      uint16 = 0x10FF
	codeFailQuiet  uint16 = 0x2000
	codeFailOutput uint16 = 0x4000
	codeLast       uint16 = 0x6000

	reasonMask uint16 = 0x0FFF
)

// Kind classifies a task result for the scheduler's state machine.
type Kind uint8

const (
	// KindInvalid marks a code outside every recognized range. A body
	// returning one is a broken task implementation and is treated as fatal.
	KindInvalid Kind = iota
	// KindCompleted removes the task from the runnable queue and forwards
	// its output.
	KindCompleted
	// KindRetry leaves the task queued; it runs again after every other
	// runnable task has had a turn.
	KindRetry
	// KindFailQuiet removes the task without forwarding output.
	KindFailQuiet
	// KindFailOutput removes the task and forwards whatever output it
	// produced before failing.
	KindFailOutput
)

// Result is the outcome a task body reports back to the scheduler.
// The zero value is invalid; use the constructors.
type Result struct {
	code uint16
}

// Done reports successful completion.
func Done() Result { return Result{codeCompleted} }

// Again reports that the task did not finish and must be retried when the
// queue comes back around.
func Again() Result { return Result{codeRetry} }

// FailQuiet reports failure without output. Only the low 12 bits of reason
// are carried.
func FailQuiet(reason uint16) Result {
	return Result{codeFailQuiet | (reason & reasonMask)}
}

// FailWithOutput reports failure with partial output worth forwarding.
func FailWithOutput(reason uint16) Result {
	return Result{codeFailOutput | (reason & reasonMask)}
}

// ResultFromCode wraps a raw wire code, rejecting values outside the valid
// ranges. Intended for interop with recorded telemetry, not for task bodies.
func ResultFromCode(code uint16) (Result, error) {
	r := Result{code}
	if r.Kind() == KindInvalid {
		return Result{}, fmt.Errorf("invalid result code %04x", code)
	}
	return r, nil
}

// Code returns the raw wire value.
func (r Result) Code() uint16 { return r.code }

// Kind classifies the result.
func (r Result) Kind() Kind {
	switch {
	case r.code == codeCompleted:
		return KindCompleted
	case r.code == codeRetry:
		return KindRetry
	case r.code >= codeFailQuiet && r.code < codeFailOutput:
		return KindFailQuiet
	case r.code >= codeFailOutput && r.code < codeLast:
		return KindFailOutput
	default:
		return KindInvalid
	}
}

// Reason returns the 12-bit reason of a failure result, zero otherwise.
func (r Result) Reason() uint16 {
	switch r.Kind() {
	case KindFailQuiet, KindFailOutput:
		return r.code & reasonMask
	default:
		return 0
	}
}

// Failed reports whether the result is one of the two failure modes.
func (r Result) Failed() bool {
	k := r.Kind()
	return k == KindFailQuiet || k == KindFailOutput
}

// HasOutput reports whether the task's output frame should be forwarded to
// the telemetry transport.
func (r Result) HasOutput() bool {
	k := r.Kind()
	return k == KindCompleted || k == KindFailOutput
}

func (k Kind) String() string {
	switch k {
	case KindCompleted:
		return "completed"
	case KindRetry:
		return "retry"
	case KindFailQuiet:
		return "fail_quiet"
	case KindFailOutput:
		return "fail_output"
	default:
		return "invalid"
	}
}

func (r Result) String() string {
	if r.Failed() {
		return fmt.Sprintf("%s(%03x)", r.Kind(), r.Reason())
	}
	return r.Kind().String()
}
