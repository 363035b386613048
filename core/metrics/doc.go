// Package metrics defines interfaces and glue for recording scheduler
// activity. Sinks like the Prometheus and InfluxDB implementations in
// infra/metrics record task outcomes, admission skips and queue length and
// can be combined with NewMultiSink. The factory helpers return a MultiSink
// automatically when multiple sinks are configured.
package metrics
