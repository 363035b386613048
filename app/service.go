package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/powertask/config"
	"github.com/kilianp07/powertask/core/energy"
	coremetrics "github.com/kilianp07/powertask/core/metrics"
	coremon "github.com/kilianp07/powertask/core/monitoring"
	"github.com/kilianp07/powertask/core/scheduler"
	"github.com/kilianp07/powertask/core/task"
	"github.com/kilianp07/powertask/core/telemetry"
	"github.com/kilianp07/powertask/core/uplink"
	"github.com/kilianp07/powertask/infra/logger"
	"github.com/kilianp07/powertask/infra/metrics"
	"github.com/kilianp07/powertask/infra/monitoring"
	"github.com/kilianp07/powertask/infra/mqtt"
	"github.com/kilianp07/powertask/internal/eventbus"

	_ "github.com/kilianp07/powertask/infra/battery"
)

// Service orchestrates the scheduler, the energy source and the MQTT link.
type Service struct {
	Sched     *scheduler.Scheduler
	transport uplink.Transport
	bus       eventbus.EventBus
	log       logger.Logger
	promPort  string
	poll      time.Duration
}

// New creates a Service from the configuration, connecting the MQTT link.
func New(cfg *config.Config) (*Service, error) {
	link, err := mqtt.NewLinkClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt link: %w", err)
	}
	return NewWithTransport(cfg, link)
}

// NewWithTransport creates a Service over an existing transport. Tests and
// offline demos use it to avoid a broker.
func NewWithTransport(cfg *config.Config, tr uplink.Transport) (*Service, error) {
	logg := logger.New("service")

	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(monitor)

	source, err := energy.NewSource(cfg.Battery)
	if err != nil {
		return nil, fmt.Errorf("battery: %w", err)
	}
	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	bus := eventbus.New()
	sched := scheduler.New(cfg.Scheduler, source, sink, bus, logger.New("scheduler"))

	return &Service{
		Sched:     sched,
		transport: tr,
		bus:       bus,
		log:       logg,
		promPort:  cfg.Metrics.PrometheusPort,
		poll:      time.Duration(cfg.Scheduler.PollIntervalMS) * time.Millisecond,
	}, nil
}

// Register adds a task to the scheduler before Run is called.
func (s *Service) Register(desc task.Descriptor) { s.Sched.Register(desc) }

// Run drives the scheduler loop until the context is cancelled. Downlink
// frames are turned into runnable tasks between steps; the loop sleeps when
// only the idle task remains runnable.
func (s *Service) Run(ctx context.Context) error {
	defer coremon.Recover()

	uplink.StartForwarder(ctx, s.bus, s.transport, s.log)
	if s.promPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-s.transport.Receive():
			if !ok {
				return nil
			}
			s.handleDownlink(f)
			continue
		default:
		}
		if s.Sched.RunNext() {
			continue
		}
		// Only the idle task is runnable; wait for work.
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-s.transport.Receive():
			if !ok {
				return nil
			}
			s.handleDownlink(f)
		case <-time.After(s.poll):
		}
	}
}

// handleDownlink activates the task addressed by an inbound frame and hands
// it the frame payload as input.
func (s *Service) handleDownlink(f *telemetry.Frame) {
	if _, ok := s.Sched.Lookup(f.TaskID); !ok {
		s.log.Warnf("downlink for unknown task %s dropped", f.TaskID)
		return
	}
	in := s.Sched.MakeRunnable(f.TaskID)
	if in != nil {
		copy(in.Data, f.Data)
	}
	s.log.Infof("task %s activated by downlink (%d bytes)", f.TaskID, f.Length())
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	err := s.transport.Close()
	s.bus.Close()
	coremon.Flush(2 * time.Second)
	return err
}
