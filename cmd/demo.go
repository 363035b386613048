package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/powertask/app"
	"github.com/kilianp07/powertask/config"
	"github.com/kilianp07/powertask/core/factory"
	"github.com/kilianp07/powertask/core/task"
	"github.com/kilianp07/powertask/core/telemetry"
	"github.com/kilianp07/powertask/infra/logger"
	"github.com/kilianp07/powertask/infra/mqtt"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a self-contained task chain without a broker",
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// runDemo registers a two-task chain on a simulated battery and feeds it one
// synthetic downlink frame. The relay task's output is printed instead of
// being published.
func runDemo(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logg := logger.New("demo")
	cfg := &config.Config{}
	cfg.Scheduler.SetDefaults()
	cfg.Scheduler.DebugLevel = 3
	cfg.Battery = factory.ModuleConfig{
		Type: "simulated",
		Conf: map[string]any{"capacity": 50000.0, "level": 40000.0, "harvest_w": 5.0, "load_w": 1.0},
	}

	link := mqtt.NewMockLink()
	svc, err := app.NewWithTransport(cfg, link)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	const (
		producerID telemetry.TaskID = 0xA123
		relayID    telemetry.TaskID = 0xB007
	)
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
		ID:            relayID,
		Name:          "relay",
		InputLength:   1,
		OutputLength:  1,
		MinimumEnergy: 100,
		Run: func(in, out *telemetry.Frame) task.Result {
			out.Data[0] = in.Data[0] + 1
			return task.Done()
		},
	})

	go func() {
		link.Inject(&telemetry.Frame{TaskID: producerID, Data: []byte{'B'}})
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(200 * time.Millisecond):
				for _, f := range link.SentFrames() {
					logg.Infof("uplinked frame from %s: %q", f.TaskID, f.Data)
					stop()
					return
				}
			}
		}
	}()

	return svc.Run(ctx)
}
