// Package uplink defines the telemetry transport boundary: output frames of
// completed or failed tasks travel up to the ground link, inbound command
// frames travel down and are turned into runnable tasks by the service loop.
package uplink

import "github.com/kilianp07/powertask/core/telemetry"

// Transport carries telemetry frames between the scheduler host and the
// ground link.
type Transport interface {
	// Send forwards an output frame on the uplink.
	Send(frame *telemetry.Frame) error
	// Receive yields inbound command frames from the downlink. The
	// channel is closed when the transport shuts down.
	Receive() <-chan *telemetry.Frame
	Close() error
}
