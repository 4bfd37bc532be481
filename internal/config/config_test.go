package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pmsense.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[serial]
device = "/dev/ttyUSB0"
read_timeout = "2300ms"

[decoder]
response_deadline = "4s"

[sinks.mqtt]
enabled = true
broker = "tcp://broker.local:1883"
topic = "home/livingroom/air"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Serial.Device != "/dev/ttyUSB0" {
		t.Fatalf("unexpected device: %q", cfg.Serial.Device)
	}
	if cfg.Serial.Baud != 9600 {
		t.Fatalf("expected default baud, got %d", cfg.Serial.Baud)
	}
	if cfg.Serial.ReadTimeout.Duration != 2300*time.Millisecond {
		t.Fatalf("unexpected read timeout: %v", cfg.Serial.ReadTimeout)
	}
	if cfg.Decoder.ResponseDeadline.Duration != 4*time.Second {
		t.Fatalf("unexpected deadline: %v", cfg.Decoder.ResponseDeadline)
	}
	if !cfg.Sinks.MQTT.Enabled || cfg.Sinks.MQTT.Topic != "home/livingroom/air" {
		t.Fatalf("unexpected mqtt sink: %+v", cfg.Sinks.MQTT)
	}
	if cfg.Sinks.MQTT.ClientID != "pmsense" {
		t.Fatalf("expected default client id, got %q", cfg.Sinks.MQTT.ClientID)
	}
	if !cfg.Sinks.File.Enabled || cfg.Sinks.File.Path != "/var/log/aqm.log" {
		t.Fatalf("unexpected file sink: %+v", cfg.Sinks.File)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[serial]
devcie = "/dev/ttyUSB0"
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "serial.devcie") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
[decoder]
response_deadline = "soon"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty device", mutate: func(c *Config) { c.Serial.Device = "" }},
		{name: "zero deadline", mutate: func(c *Config) { c.Decoder.ResponseDeadline = Duration{} }},
		{name: "file without path", mutate: func(c *Config) { c.Sinks.File.Path = " " }},
		{name: "mqtt bad scheme", mutate: func(c *Config) {
			c.Sinks.MQTT.Enabled = true
			c.Sinks.MQTT.Broker = "http://broker:1883"
		}},
		{name: "mqtt bad qos", mutate: func(c *Config) {
			c.Sinks.MQTT.Enabled = true
			c.Sinks.MQTT.QoS = 3
		}},
		{name: "redis without channel", mutate: func(c *Config) {
			c.Sinks.Redis.Enabled = true
			c.Sinks.Redis.Channel = ""
		}},
		{name: "http without addr", mutate: func(c *Config) {
			c.HTTP.Enabled = true
			c.HTTP.Addr = ""
		}},
	}
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := Validate(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestTemplateLoadsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pmsense.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected existing config to be protected")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("template drifted from defaults:\n got=%+v\nwant=%+v", cfg, Default())
	}
}
