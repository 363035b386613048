package uplink

import (
	"context"
	"testing"
	"time"

	"github.com/kilianp07/powertask/core/events"
	"github.com/kilianp07/powertask/core/task"
	"github.com/kilianp07/powertask/core/telemetry"
	"github.com/kilianp07/powertask/internal/eventbus"
)

type captureTransport struct {
	sent chan *telemetry.Frame
}

func (c *captureTransport) Send(f *telemetry.Frame) error    { c.sent <- f; return nil }
func (c *captureTransport) Receive() <-chan *telemetry.Frame { return nil }
func (c *captureTransport) Close() error                     { return nil }

func TestForwarderSendsOutcomesWithOutput(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := eventbus.New()
	tr := &captureTransport{sent: make(chan *telemetry.Frame, 4)}
	StartForwarder(ctx, bus, tr, nil)
	time.Sleep(10 * time.Millisecond) // let the subscriber attach

	out := &telemetry.Frame{TaskID: 0xA123, Data: []byte{'A'}}
	bus.Publish(events.TaskOutcome{TaskID: 0xA123, Result: task.Done(), Output: out})
	bus.Publish(events.TaskOutcome{TaskID: 0xB007, Result: task.FailQuiet(1)})
	bus.Publish(events.TaskRetried{TaskID: 0xFFFF})

	select {
	case f := <-tr.sent:
		if f.TaskID != 0xA123 {
			t.Fatalf("forwarded wrong frame: %s", f.TaskID)
		}
	case <-time.After(time.Second):
		t.Fatalf("completed outcome was not forwarded")
	}

	select {
	case f := <-tr.sent:
		t.Fatalf("quiet failure must not be forwarded, got %s", f.TaskID)
	case <-time.After(50 * time.Millisecond):
	}
}
