package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration written as a Go duration string ("1s", "250ms").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type Config struct {
	Serial  SerialConfig  `toml:"serial"`
	Decoder DecoderConfig `toml:"decoder"`
	Monitor MonitorConfig `toml:"monitor"`
	Log     LogConfig     `toml:"log"`
	Sinks   SinksConfig   `toml:"sinks"`
	HTTP    HTTPConfig    `toml:"http"`
}

type SerialConfig struct {
	Device      string   `toml:"device"`
	Baud        int      `toml:"baud"`
	ReadTimeout Duration `toml:"read_timeout"`
}

type DecoderConfig struct {
	ResponseDeadline Duration `toml:"response_deadline"`
}

type MonitorConfig struct {
	Loop            bool     `toml:"loop"`
	RetryInitial    Duration `toml:"retry_initial"`
	RetryMax        Duration `toml:"retry_max"`
	RetryMultiplier float64  `toml:"retry_multiplier"`
	RetryJitter     bool     `toml:"retry_jitter"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type SinksConfig struct {
	Log     LogSinkConfig     `toml:"log"`
	File    FileSinkConfig    `toml:"file"`
	MQTT    MQTTSinkConfig    `toml:"mqtt"`
	Redis   RedisSinkConfig   `toml:"redis"`
	Metrics MetricsSinkConfig `toml:"metrics"`
}

type LogSinkConfig struct {
	Enabled bool `toml:"enabled"`
}

type FileSinkConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type MQTTSinkConfig struct {
	Enabled  bool   `toml:"enabled"`
	Broker   string `toml:"broker"`
	ClientID string `toml:"client_id"`
	Topic    string `toml:"topic"`
	QoS      int    `toml:"qos"`
	Retained bool   `toml:"retained"`
}

type RedisSinkConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Channel  string `toml:"channel"`
	ListKey  string `toml:"list_key"`
	ListLen  int64  `toml:"list_len"`
}

type MetricsSinkConfig struct {
	Enabled bool `toml:"enabled"`
}

type HTTPConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

// Default returns the runtime defaults every config file is layered onto.
func Default() Config {
	return Config{
		Serial: SerialConfig{
			Device:      "/dev/serial0",
			Baud:        9600,
			ReadTimeout: Duration{time.Second},
		},
		Decoder: DecoderConfig{
			ResponseDeadline: Duration{10 * time.Second},
		},
		Monitor: MonitorConfig{
			RetryInitial:    Duration{250 * time.Millisecond},
			RetryMax:        Duration{5 * time.Second},
			RetryMultiplier: 2.0,
			RetryJitter:     true,
		},
		Log: LogConfig{Level: "info"},
		Sinks: SinksConfig{
			Log:  LogSinkConfig{Enabled: true},
			File: FileSinkConfig{Enabled: true, Path: "/var/log/aqm.log"},
			MQTT: MQTTSinkConfig{
				Broker:   "tcp://localhost:1883",
				ClientID: "pmsense",
				Topic:    "pmsense",
			},
			Redis: RedisSinkConfig{
				Addr:    "localhost:6379",
				Channel: "pmsense:measurements",
				ListKey: "pmsense:history",
				ListLen: 1000,
			},
			Metrics: MetricsSinkConfig{Enabled: true},
		},
		HTTP: HTTPConfig{
			Addr:        ":9100",
			CorsOrigins: []string{"http://localhost:3000"},
		},
	}
}

// Load decodes path on top of Default and validates the result. Unknown keys
// are rejected so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Serial.Device) == "" {
		return fmt.Errorf("serial.device is required")
	}
	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive")
	}
	if cfg.Serial.ReadTimeout.Duration <= 0 {
		return fmt.Errorf("serial.read_timeout must be positive")
	}
	if cfg.Decoder.ResponseDeadline.Duration <= 0 {
		return fmt.Errorf("decoder.response_deadline must be positive")
	}
	if cfg.Monitor.RetryInitial.Duration < 0 || cfg.Monitor.RetryMax.Duration < 0 {
		return fmt.Errorf("monitor retry delays must not be negative")
	}
	if cfg.Sinks.File.Enabled && strings.TrimSpace(cfg.Sinks.File.Path) == "" {
		return fmt.Errorf("sinks.file.path is required when enabled")
	}
	if cfg.Sinks.MQTT.Enabled {
		if err := validateBroker(cfg.Sinks.MQTT.Broker); err != nil {
			return fmt.Errorf("sinks.mqtt.broker: %w", err)
		}
		if strings.TrimSpace(cfg.Sinks.MQTT.Topic) == "" {
			return fmt.Errorf("sinks.mqtt.topic is required when enabled")
		}
		if cfg.Sinks.MQTT.QoS < 0 || cfg.Sinks.MQTT.QoS > 2 {
			return fmt.Errorf("sinks.mqtt.qos must be 0, 1 or 2")
		}
	}
	if cfg.Sinks.Redis.Enabled {
		if strings.TrimSpace(cfg.Sinks.Redis.Addr) == "" {
			return fmt.Errorf("sinks.redis.addr is required when enabled")
		}
		if strings.TrimSpace(cfg.Sinks.Redis.Channel) == "" {
			return fmt.Errorf("sinks.redis.channel is required when enabled")
		}
	}
	if cfg.HTTP.Enabled && strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return fmt.Errorf("http.addr is required when enabled")
	}
	return nil
}

func validateBroker(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "tcp", "ssl", "tls", "ws", "wss", "mqtt", "mqtts":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
