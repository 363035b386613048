package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/powertask/core/events"
	coremetrics "github.com/kilianp07/powertask/core/metrics"
	"github.com/kilianp07/powertask/infra/logger"
)

// InfluxSink writes scheduler events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB
// endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns
// a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordOutcome writes the task outcome as a line protocol point.
func (s *InfluxSink) RecordOutcome(ev events.TaskOutcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("task_outcome").
		AddTag("task_id", ev.TaskID.String()).
		AddTag("task_name", ev.Name).
		AddTag("kind", ev.Result.Kind().String()).
		AddField("result_code", int(ev.Result.Code())).
		AddField("reason", int(ev.Result.Reason())).
		AddField("duration_ms", float64(ev.Duration)/float64(time.Millisecond)).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAdmissionSkip persists an energy admission refusal.
func (s *InfluxSink) RecordAdmissionSkip(ev events.AdmissionSkip) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("admission_skip").
		AddTag("task_id", ev.TaskID.String()).
		AddTag("task_name", ev.Name).
		AddField("need_joules", float64(ev.Need)).
		AddField("available_joules", float64(ev.Available)).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordQueueLength persists the runnable queue size.
func (s *InfluxSink) RecordQueueLength(n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("runnable_queue").
		AddField("length", n).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
