package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/powertask/core/events"
	coremetrics "github.com/kilianp07/powertask/core/metrics"
)

// PromSink records scheduler events in Prometheus metrics.
type PromSink struct {
	outcomes *prometheus.CounterVec
	skips    *prometheus.CounterVec
	retries  *prometheus.CounterVec
	queue    prometheus.Gauge
	duration *prometheus.HistogramVec
}

// NewPromSink registers scheduler metrics on the default Prometheus
// registerer. The metrics HTTP server is started separately with
// StartPromServer.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "powertask_outcomes_total",
		Help: "Total number of task outcomes by result kind",
	}, []string{"task_id", "kind"})
	skips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "powertask_admission_skips_total",
		Help: "Tasks skipped because battery energy was below their minimum",
	}, []string{"task_id"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "powertask_retries_total",
		Help: "Task bodies that asked to be rescheduled",
	}, []string{"task_id"})
	queue := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powertask_runnable_tasks",
		Help: "Number of tasks in the runnable queue, idle task included",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "powertask_run_duration_seconds",
		Help:    "Wall time spent inside task bodies",
		Buckets: prometheus.DefBuckets,
	}, []string{"task_id"})

	s := &PromSink{outcomes: outcomes, skips: skips, retries: retries, queue: queue, duration: duration}
	for _, c := range []prometheus.Collector{outcomes, skips, retries, queue, duration} {
		if err := register(reg, c, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// register tolerates double registration so multiple sinks in one process
// share collectors.
func register(reg prometheus.Registerer, c prometheus.Collector, s *PromSink) error {
	err := reg.Register(c)
	if err == nil {
		return nil
	}
	are, ok := err.(prometheus.AlreadyRegisteredError)
	if !ok {
		return err
	}
	switch v := c.(type) {
	case *prometheus.CounterVec:
		existing := are.ExistingCollector.(*prometheus.CounterVec)
		switch v {
		case s.outcomes:
			s.outcomes = existing
		case s.skips:
			s.skips = existing
		case s.retries:
			s.retries = existing
		}
	case prometheus.Gauge:
		s.queue = are.ExistingCollector.(prometheus.Gauge)
	case *prometheus.HistogramVec:
		s.duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	return nil
}

// RecordOutcome increments the outcome counter and observes the run time.
func (s *PromSink) RecordOutcome(ev events.TaskOutcome) error {
	id := ev.TaskID.String()
	s.outcomes.WithLabelValues(id, ev.Result.Kind().String()).Inc()
	s.duration.WithLabelValues(id).Observe(ev.Duration.Seconds())
	return nil
}

// RecordAdmissionSkip counts tasks turned away for lack of energy.
func (s *PromSink) RecordAdmissionSkip(ev events.AdmissionSkip) error {
	s.skips.WithLabelValues(ev.TaskID.String()).Inc()
	return nil
}

// RecordQueueLength sets the runnable queue gauge.
func (s *PromSink) RecordQueueLength(n int) error {
	s.queue.Set(float64(n))
	return nil
}

// RecordRetry counts reschedule requests.
func (s *PromSink) RecordRetry(ev events.TaskRetried) error {
	s.retries.WithLabelValues(ev.TaskID.String()).Inc()
	return nil
}
