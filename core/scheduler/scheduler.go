package scheduler

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kilianp07/powertask/core/energy"
	"github.com/kilianp07/powertask/core/events"
	"github.com/kilianp07/powertask/core/logger"
	"github.com/kilianp07/powertask/core/metrics"
	"github.com/kilianp07/powertask/core/monitoring"
	"github.com/kilianp07/powertask/core/task"
	"github.com/kilianp07/powertask/core/telemetry"
	"github.com/kilianp07/powertask/internal/eventbus"
)

// IdleTaskID is the built-in idle task installed on first registration. It
// has no energy requirement, carries no telemetry and always asks to be
// rescheduled, so the runnable queue is never empty.
const IdleTaskID telemetry.TaskID = 0xFFFF

// Configuration errors are unrecoverable: they indicate an integration
// defect, not a runtime condition, and go through the fatal path.
var (
	ErrDuplicateID   = errors.New("task id already registered")
	ErrUnknownTask   = errors.New("task not registered")
	ErrInvalidResult = errors.New("task returned invalid result code")
	ErrNoBody        = errors.New("task has no body")
)

// FatalHandler receives unrecoverable configuration errors. The default
// handler logs the error, reports it to the monitor and exits the process.
// After the handler returns the scheduler panics, so a test handler can
// recover instead of exiting.
type FatalHandler func(err error)

// none marks an unused arena link.
const none = int32(-1)

// record is the runtime state of a registered task. Records live in the
// scheduler's arena and are linked by index: lower/higher form the registry
// tree, prev/next the circular runnable queue. prev is none exactly when the
// task is not queued.
type record struct {
	desc          task.Descriptor
	input, output *telemetry.Frame
	lower, higher int32
	prev, next    int32
}

// Scheduler owns the task registry, the runnable queue and the admission
// state machine. It is not safe for concurrent use: all calls must come from
// a single goroutine (see app.Service for the serialization pattern).
type Scheduler struct {
	log    logger.Logger
	source energy.Source
	sink   metrics.Sink
	bus    eventbus.EventBus
	fatal  FatalHandler

	debug   int
	records []record
	root    int32
	cursor  int32
}

// New creates a scheduler reading admission energy from source. sink, bus
// and log may be nil.
func New(cfg Config, source energy.Source, sink metrics.Sink, bus eventbus.EventBus, log logger.Logger) *Scheduler {
	if log == nil {
		log = nopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	s := &Scheduler{
		log:    log,
		source: source,
		sink:   sink,
		bus:    bus,
		debug:  cfg.DebugLevel,
		root:   none,
		cursor: none,
	}
	s.fatal = s.defaultFatal
	return s
}

// SetDebugLevel sets the trace verbosity threshold. 0 silences everything
// except fatal reports; higher values add more detail.
func (s *Scheduler) SetDebugLevel(level int) { s.debug = level }

// SetFatalHandler replaces the handler invoked for unrecoverable
// configuration errors. Intended for tests.
func (s *Scheduler) SetFatalHandler(h FatalHandler) {
	if h != nil {
		s.fatal = h
	}
}

// Register creates the runtime record for a descriptor and inserts it into
// the registry. Registering a duplicate id is fatal. The very first
// registration also installs the built-in idle task and makes it runnable.
func (s *Scheduler) Register(desc task.Descriptor) {
	if desc.Run == nil {
		s.fatalf(ErrNoBody, "task %s (%s)", desc.ID, desc.Name)
	}
	s.debugw(10, "register task", map[string]any{
		"id":         desc.ID.String(),
		"name":       desc.Name,
		"min_energy": float64(desc.MinimumEnergy),
		"in_bytes":   desc.InputLength,
		"out_bytes":  desc.OutputLength,
	})

	idx := s.alloc(desc)
	if s.root == none {
		s.root = idx
		s.bootstrap()
		return
	}
	s.linkIntoTree(idx)
}

// Lookup returns the descriptor registered under id.
func (s *Scheduler) Lookup(id telemetry.TaskID) (task.Descriptor, bool) {
	idx := s.lookup(id)
	if idx == none {
		return task.Descriptor{}, false
	}
	return s.records[idx].desc, true
}

// MakeRunnable adds the task to the runnable queue and returns its input
// frame for the caller to populate before the task next runs. Both frames
// are allocated on the first call and reused thereafter. Calling this on a
// task already queued is a warning no-op returning the existing input frame;
// calling it on an unregistered id is fatal.
func (s *Scheduler) MakeRunnable(id telemetry.TaskID) *telemetry.Frame {
	idx := s.lookup(id)
	if idx == none {
		s.fatalf(ErrUnknownTask, "make runnable %s", id)
	}
	desc := s.records[idx].desc
	s.debugf(3, "make_runnable %s (%s)", id, desc.Name)

	if s.records[idx].prev != none {
		s.log.Warnf("task %s (%s) is already runnable, ignoring", id, desc.Name)
		return s.records[idx].input
	}

	if s.records[idx].input == nil {
		s.debugf(8, "allocating %d byte input frame for %s", desc.InputLength, id)
		s.records[idx].input = telemetry.NewFrame(id, desc.InputLength)
	}
	if s.records[idx].output == nil {
		s.debugf(8, "allocating %d byte output frame for %s", desc.OutputLength, id)
		s.records[idx].output = telemetry.NewFrame(id, desc.OutputLength)
	}

	if s.cursor == none {
		s.records[idx].prev = idx
		s.records[idx].next = idx
		s.cursor = idx
	} else {
		// New arrivals cut in at the cursor and get the very next turn.
		nxt := s.records[s.cursor].next
		s.records[idx].prev = s.cursor
		s.records[idx].next = nxt
		s.records[s.cursor].next = idx
		s.records[nxt].prev = idx
		s.cursor = idx
	}

	if s.bus != nil {
		s.bus.Publish(events.TaskRunnable{TaskID: id, Name: desc.Name})
	}
	if err := s.sink.RecordQueueLength(s.QueueLength()); err != nil {
		s.log.Errorf("record queue length: %v", err)
	}
	return s.records[idx].input
}

// RunNext considers exactly the task at the queue cursor: skips it when the
// battery is below its declared minimum, otherwise runs its body once and
// applies the result. It returns true while tasks beyond the always-present
// idle task remain queued.
func (s *Scheduler) RunNext() bool {
	if s.cursor == none {
		return false
	}
	idx := s.cursor
	desc := s.records[idx].desc
	s.debugf(3, "run_next chooses %s (%s)", desc.ID, desc.Name)

	avail := s.source.CurrentEnergy()
	if avail < desc.MinimumEnergy {
		s.debugf(3, "not enough battery for %s: need %v have %v", desc.ID, desc.MinimumEnergy, avail)
		if s.bus != nil {
			s.bus.Publish(events.AdmissionSkip{TaskID: desc.ID, Name: desc.Name, Need: desc.MinimumEnergy, Available: avail})
		}
		if err := s.sink.RecordAdmissionSkip(events.AdmissionSkip{TaskID: desc.ID, Name: desc.Name, Need: desc.MinimumEnergy, Available: avail}); err != nil {
			s.log.Errorf("record admission skip: %v", err)
		}
		s.cursor = s.records[idx].next
		return s.more()
	}

	start := time.Now()
	res := desc.Run(s.records[idx].input, s.records[idx].output)
	dur := time.Since(start)
	s.debugf(3, "%s (%s) returned %s", desc.ID, desc.Name, res)

	switch res.Kind() {
	case task.KindRetry:
		// Stays queued; everyone else gets a turn before it runs again.
		if s.bus != nil {
			s.bus.Publish(events.TaskRetried{TaskID: desc.ID, Name: desc.Name})
		}
		if rr, ok := s.sink.(metrics.RetryRecorder); ok {
			if err := rr.RecordRetry(events.TaskRetried{TaskID: desc.ID, Name: desc.Name}); err != nil {
				s.log.Errorf("record retry: %v", err)
			}
		}
		s.cursor = s.records[idx].next
	case task.KindCompleted, task.KindFailOutput:
		out := s.records[idx].output
		s.remove(idx)
		s.publishOutcome(desc, res, out, dur)
	case task.KindFailQuiet:
		s.remove(idx)
		s.publishOutcome(desc, res, nil, dur)
	default:
		s.fatalf(ErrInvalidResult, "code %04x from %s (%s)", res.Code(), desc.ID, desc.Name)
	}
	return s.more()
}

// QueueLength returns the number of tasks currently runnable, including the
// idle task.
func (s *Scheduler) QueueLength() int {
	if s.cursor == none {
		return 0
	}
	n := 1
	for i := s.records[s.cursor].next; i != s.cursor; i = s.records[i].next {
		n++
	}
	return n
}

// IsRunnable reports whether the task is currently queued.
func (s *Scheduler) IsRunnable(id telemetry.TaskID) bool {
	idx := s.lookup(id)
	return idx != none && s.records[idx].prev != none
}

func (s *Scheduler) alloc(desc task.Descriptor) int32 {
	s.records = append(s.records, record{
		desc:  desc,
		lower: none, higher: none,
		prev: none, next: none,
	})
	return int32(len(s.records) - 1)
}

func (s *Scheduler) linkIntoTree(idx int32) {
	id := s.records[idx].desc.ID
	p := s.root
	for {
		switch {
		case id < s.records[p].desc.ID:
			if s.records[p].lower == none {
				s.records[p].lower = idx
				return
			}
			p = s.records[p].lower
		case id > s.records[p].desc.ID:
			if s.records[p].higher == none {
				s.records[p].higher = idx
				return
			}
			p = s.records[p].higher
		default:
			s.fatalf(ErrDuplicateID, "id %s claimed by %q and %q",
				id, s.records[p].desc.Name, s.records[idx].desc.Name)
		}
	}
}

func (s *Scheduler) lookup(id telemetry.TaskID) int32 {
	p := s.root
	for p != none {
		switch {
		case id < s.records[p].desc.ID:
			p = s.records[p].lower
		case id > s.records[p].desc.ID:
			p = s.records[p].higher
		default:
			return p
		}
	}
	return none
}

// bootstrap installs the built-in idle task on the first registration ever.
func (s *Scheduler) bootstrap() {
	s.Register(task.Descriptor{
		ID:   IdleTaskID,
		Name: "IdleTask",
		Run: func(_, _ *telemetry.Frame) task.Result {
			// microprocessor sleep mode would go here
			s.debugf(5, "idle")
			return task.Again()
		},
	})
	s.MakeRunnable(IdleTaskID)
}

// remove unlinks the task from the runnable queue, repointing the cursor if
// needed. Removing a task that is not queued is a no-op.
func (s *Scheduler) remove(idx int32) {
	if s.records[idx].prev == none {
		return
	}
	desc := s.records[idx].desc
	s.debugf(3, "removing %s (%s) from the run queue", desc.ID, desc.Name)
	if s.records[idx].next == idx {
		s.cursor = none
	} else {
		prev, next := s.records[idx].prev, s.records[idx].next
		s.records[prev].next = next
		s.records[next].prev = prev
		if s.cursor == idx {
			s.cursor = next
		}
	}
	s.records[idx].prev = none
	s.records[idx].next = none
	if err := s.sink.RecordQueueLength(s.QueueLength()); err != nil {
		s.log.Errorf("record queue length: %v", err)
	}
}

// more reports whether anything beyond a single queued task remains.
func (s *Scheduler) more() bool {
	return s.cursor != none && s.records[s.cursor].next != s.cursor
}

func (s *Scheduler) publishOutcome(desc task.Descriptor, res task.Result, out *telemetry.Frame, dur time.Duration) {
	ev := events.TaskOutcome{TaskID: desc.ID, Name: desc.Name, Result: res, Output: out, Duration: dur}
	if s.bus != nil {
		s.bus.Publish(ev)
	}
	if err := s.sink.RecordOutcome(ev); err != nil {
		s.log.Errorf("record outcome: %v", err)
	}
}

// fatalf routes an unrecoverable configuration error through the fatal
// handler, then panics so execution never continues past the call site.
func (s *Scheduler) fatalf(base error, format string, args ...any) {
	err := fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
	s.fatal(err)
	panic(err)
}

func (s *Scheduler) defaultFatal(err error) {
	s.log.Errorf("FATAL powertask error: %v", err)
	monitoring.CaptureException(err, map[string]string{"component": "scheduler"})
	monitoring.Flush(2 * time.Second)
	os.Exit(1)
}

func (s *Scheduler) debugf(level int, format string, args ...any) {
	if s.debug >= level {
		s.log.Debugf(format, args...)
	}
}

func (s *Scheduler) debugw(level int, msg string, fields map[string]any) {
	if s.debug >= level {
		s.log.Debugw(msg, fields)
	}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
