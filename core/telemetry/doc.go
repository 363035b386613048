// Package telemetry defines the task identifier namespace and the telemetry
// frame, the payload container exchanged between the scheduler, task bodies
// and the uplink/downlink channel. The binary frame layout is fixed and must
// stay byte-for-byte compatible with existing ground tooling.
package telemetry
