package battery

import (
	"github.com/kilianp07/powertask/core/energy"
	"github.com/kilianp07/powertask/core/factory"
)

// DefaultLevel is the bench battery level assumed when none is configured.
const DefaultLevel energy.Joules = 30000

// init registers built-in energy sources.
func init() {
	_ = energy.RegisterSource("static", func(conf map[string]any) (energy.Source, error) {
		var c struct {
			Level *float64 `json:"level"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		level := DefaultLevel
		if c.Level != nil {
			level = energy.Joules(*c.Level)
		}
		return NewStatic(level), nil
	})

	_ = energy.RegisterSource("simulated", func(conf map[string]any) (energy.Source, error) {
		var c struct {
			Capacity float64 `json:"capacity"`
			Level    float64 `json:"level"`
			HarvestW float64 `json:"harvest_w"`
			LoadW    float64 `json:"load_w"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSimulated(energy.Joules(c.Capacity), energy.Joules(c.Level), c.HarvestW, c.LoadW), nil
	})
}
