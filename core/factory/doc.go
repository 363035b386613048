// Package factory provides a small generic registry used to instantiate
// modules from configuration. Modules are defined by a type string and a map
// of raw settings. Factories decode the settings into typed structs and
// return the concrete implementation. The scheduler uses it for metrics
// sinks and energy sources so deployments can swap implementations without
// code changes.
package factory
