package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `mqtt:
  broker: "tcp://localhost:1883"
  client_id: "node-1"
  username: "user"
  password: "pass"
  uplink_topic: "powertask/up"
  use_tls: false
scheduler:
  debug_level: 3
battery:
  type: "simulated"
  conf:
    capacity: 50000
metrics:
  sinks:
    - type: "nop"
sentry:
  dsn: ""
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "node-1"},
		{"username", cfg.MQTT.Username, "user"},
		{"uplink_topic", cfg.MQTT.UplinkTopic, "powertask/up"},
		{"downlink_topic", cfg.MQTT.DownlinkTopic, "powertask/downlink"},
		{"use_tls", cfg.MQTT.UseTLS, false},
		{"debug_level", cfg.Scheduler.DebugLevel, 3},
		{"poll_interval_ms", cfg.Scheduler.PollIntervalMS, 100},
		{"battery_type", cfg.Battery.Type, "simulated"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"sentry_dsn", cfg.Sentry.DSN, ""},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"mqtt": {"broker": "tcp://localhost:1883"}, "scheduler": {"debug_level": 2}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PT_SCHEDULER__DEBUG_LEVEL", "8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Scheduler.DebugLevel != 8 {
		t.Errorf("debug_level: got %d want 8", cfg.Scheduler.DebugLevel)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoadMissingBroker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("scheduler:\n  debug_level: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for missing broker")
	}
}
