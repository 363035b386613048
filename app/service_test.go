package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/powertask/config"
	"github.com/kilianp07/powertask/core/task"
	"github.com/kilianp07/powertask/core/telemetry"
	"github.com/kilianp07/powertask/infra/mqtt"
)

const (
	producerID telemetry.TaskID = 0xA123
	relayID    telemetry.TaskID = 0xB007
)

func newTestService(t *testing.T) (*Service, *mqtt.MockLink) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Scheduler.SetDefaults()
	cfg.Scheduler.PollIntervalMS = 5
	cfg.SetDefaults()
	link := mqtt.NewMockLink()
	svc, err := NewWithTransport(cfg, link)
	require.NoError(t, err)
	return svc, link
}

// A downlink frame activates the producer task, which hands its payload to
// the relay task; the relay increments the byte and its output is uplinked.
func TestServiceDownlinkToUplink(t *testing.T) {
	svc, link := newTestService(t)

	svc.Register(task.Descriptor{
		ID:          producerID,
		Name:        "producer",
		InputLength: 1,
		Run: func(in, _ *telemetry.Frame) task.Result {
			next := svc.Sched.MakeRunnable(relayID)
			next.Data[0] = in.Data[0]
			return task.FailQuiet(0x001)
		},
	})
	svc.Register(task.Descriptor{
		ID:           relayID,
		Name:         "relay",
		InputLength:  1,
		OutputLength: 1,
		Run: func(in, out *telemetry.Frame) task.Result {
			out.Data[0] = in.Data[0] + 1
			return task.Done()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Run(ctx)
	}()

	link.Inject(&telemetry.Frame{TaskID: producerID, Data: []byte{'B'}})

	require.Eventually(t, func() bool {
		return len(link.SentFrames()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	sent := link.SentFrames()[0]
	require.Equal(t, relayID, sent.TaskID)
	require.Equal(t, byte('C'), sent.Data[0])

	cancel()
	<-done
	require.NoError(t, svc.Close())
}

func TestServiceDropsUnknownDownlink(t *testing.T) {
	svc, link := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Run(ctx)
	}()

	link.Inject(&telemetry.Frame{TaskID: 0xCAFE, Data: []byte{1}})
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, link.SentFrames())

	cancel()
	<-done
}
