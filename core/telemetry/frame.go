package telemetry

import (
	"encoding/binary"
	"fmt"
)

// TaskID identifies a task in telemetry frames and logs. It is traditionally
// printed in hex, so pick values like 0xB0F3.
type TaskID uint16

// IDs below ReservedLow or above ReservedHigh are reserved for the task
// system itself. The scheduler does not enforce this; IsApplicationID is a
// convention check for integrators.
const (
	ReservedLow  TaskID = 0x1000
	ReservedHigh TaskID = 0xF000
)

// IsApplicationID reports whether id falls in the range open to applications.
func IsApplicationID(id TaskID) bool {
	return id >= ReservedLow && id <= ReservedHigh
}

// String formats the id the way it appears in downlink captures.
func (id TaskID) String() string { return fmt.Sprintf("%04x", uint16(id)) }

// HeaderSize is the number of bytes preceding the payload on the wire:
// the owning task id followed by the payload length, both uint16
// little-endian.
const HeaderSize = 4

// Frame is a telemetry packet: the in-memory and on-the-wire container for
// getting data into or back from a task. One input and one output frame are
// attached to each task record; they are allocated once and reused across
// retries and repeated runs.
type Frame struct {
	TaskID TaskID
	Data   []byte
}

// NewFrame returns a zero-initialized frame with a payload of exactly
// length bytes.
func NewFrame(id TaskID, length uint16) *Frame {
	return &Frame{TaskID: id, Data: make([]byte, length)}
}

// Length returns the payload length as carried in the header.
func (f *Frame) Length() uint16 { return uint16(len(f.Data)) }

// MarshalBinary encodes the frame in the uplink/downlink wire format:
// a HeaderSize-byte header followed by the payload bytes.
func (f *Frame) MarshalBinary() ([]byte, error) {
	if len(f.Data) > 0xFFFF {
		return nil, fmt.Errorf("telemetry payload too large: %d bytes", len(f.Data))
	}
	buf := make([]byte, HeaderSize+len(f.Data))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(f.TaskID))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(f.Data)))
	copy(buf[HeaderSize:], f.Data)
	return buf, nil
}

// UnmarshalBinary decodes a wire frame. The header length field must match
// the remaining byte count exactly.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("telemetry frame too short: %d bytes", len(data))
	}
	length := binary.LittleEndian.Uint16(data[2:4])
	if int(length) != len(data)-HeaderSize {
		return fmt.Errorf("telemetry length mismatch: header says %d, got %d payload bytes",
			length, len(data)-HeaderSize)
	}
	f.TaskID = TaskID(binary.LittleEndian.Uint16(data[0:2]))
	f.Data = make([]byte, length)
	copy(f.Data, data[HeaderSize:])
	return nil
}
