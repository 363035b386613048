package uplink

import (
	"context"

	"github.com/kilianp07/powertask/core/events"
	"github.com/kilianp07/powertask/core/logger"
	"github.com/kilianp07/powertask/internal/eventbus"
)

// StartForwarder subscribes to the event bus and sends the output frame of
// every outcome that carries one (completed and failed-with-output) on the
// transport. It stops when the context is canceled.
func StartForwarder(ctx context.Context, bus eventbus.EventBus, tr Transport, log logger.Logger) {
	if bus == nil || tr == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				o, ok := ev.(events.TaskOutcome)
				if !ok || !o.Result.HasOutput() || o.Output == nil {
					continue
				}
				if err := tr.Send(o.Output); err != nil && log != nil {
					log.Errorf("uplink %s: %v", o.TaskID, err)
				}
			}
		}
	}()
}
