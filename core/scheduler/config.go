package scheduler

import "fmt"

// Config defines runtime settings for the scheduler loaded from
// configuration.
type Config struct {
	// DebugLevel is the trace verbosity threshold. 0 disables trace
	// output; higher values add more detail.
	DebugLevel int `json:"debug_level"`
	// PollIntervalMS is how long the service loop sleeps between polls
	// when only the idle task remains runnable.
	PollIntervalMS int `json:"poll_interval_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PollIntervalMS == 0 {
		c.PollIntervalMS = 100
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.DebugLevel < 0 {
		return fmt.Errorf("debug_level must be non-negative")
	}
	if c.PollIntervalMS < 0 {
		return fmt.Errorf("poll_interval_ms must be non-negative")
	}
	return nil
}
