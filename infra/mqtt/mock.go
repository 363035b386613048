package mqtt

import (
	"fmt"
	"sync"

	"github.com/kilianp07/powertask/core/telemetry"
	"github.com/kilianp07/powertask/core/uplink"
)

// MockLink is an in-memory transport used in tests.
type MockLink struct {
	mu      sync.Mutex
	Sent    []*telemetry.Frame
	Fail    bool
	inbound chan *telemetry.Frame
	closed  bool
}

// NewMockLink creates a new MockLink.
func NewMockLink() *MockLink {
	return &MockLink{inbound: make(chan *telemetry.Frame, 32)}
}

// Send records the frame or returns an error if configured to fail.
func (m *MockLink) Send(frame *telemetry.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.Sent = append(m.Sent, frame)
	return nil
}

// Receive yields frames injected with Inject.
func (m *MockLink) Receive() <-chan *telemetry.Frame { return m.inbound }

// Inject simulates an inbound downlink frame.
func (m *MockLink) Inject(frame *telemetry.Frame) {
	m.inbound <- frame
}

// SentFrames returns a snapshot of everything sent so far.
func (m *MockLink) SentFrames() []*telemetry.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*telemetry.Frame, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// Close closes the inbound channel.
func (m *MockLink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.inbound)
	}
	return nil
}

var _ uplink.Transport = (*MockLink)(nil)
