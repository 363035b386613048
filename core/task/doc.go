// Package task defines the task descriptor supplied by applications and the
// result codes a task body can report. Result codes keep the historical
// 16-bit wire values but are exposed as an opaque type so only valid values
// can be constructed.
package task
