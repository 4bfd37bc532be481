package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/pmsense/internal/config"
	"github.com/danmuck/pmsense/internal/device"
	"github.com/danmuck/pmsense/internal/logging"
	"github.com/danmuck/pmsense/internal/monitor"
	"github.com/danmuck/pmsense/internal/sink"
	"github.com/rs/zerolog"
)

type flags struct {
	ConfigPath string
	Loop       bool
	Device     string
}

// loadConfig reads path (defaults when empty) and applies command-line
// overrides on top.
func loadConfig(path string, f flags) (config.Config, error) {
	cfg := config.Default()
	if strings.TrimSpace(path) != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if f.Loop {
		cfg.Monitor.Loop = true
	}
	if d := strings.TrimSpace(f.Device); d != "" {
		cfg.Serial.Device = d
	}
	return cfg, config.Validate(cfg)
}

// applyLogLevel sets the global level from the config unless the
// environment already chose one.
func applyLogLevel(cfg config.Config) {
	if strings.TrimSpace(os.Getenv(logging.EnvLogLevel)) != "" {
		return
	}
	if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok {
		zerolog.SetGlobalLevel(lvl)
	}
}

type flusher interface {
	Flush() error
}

// discardStale drops bytes buffered before this invocation so a one-shot
// decode reports live data. A failed flush only costs freshness.
func discardStale(port flusher, logger zerolog.Logger) {
	if err := port.Flush(); err != nil {
		logger.Warn().Err(err).Msg("flush serial input")
	}
}

func serialConfig(cfg config.Config) device.Config {
	return device.Config{
		Device:      cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: cfg.Serial.ReadTimeout.Duration,
	}
}

func monitorConfig(cfg config.Config) monitor.Config {
	return monitor.Config{
		Backoff: monitor.BackoffConfig{
			InitialDelay: cfg.Monitor.RetryInitial.Duration,
			Multiplier:   cfg.Monitor.RetryMultiplier,
			MaxDelay:     cfg.Monitor.RetryMax.Duration,
			Jitter:       cfg.Monitor.RetryJitter,
		},
	}
}

// buildSinks opens every enabled sink. The hub is non-nil only when the
// HTTP surface is enabled.
func buildSinks(ctx context.Context, cfg config.Config, logger zerolog.Logger) ([]sink.Sink, *sink.Hub, error) {
	var sinks []sink.Sink
	s := cfg.Sinks
	if s.Log.Enabled {
		sinks = append(sinks, sink.NewLog(logger))
	}
	if s.File.Enabled {
		sinks = append(sinks, sink.NewFile(s.File.Path))
	}
	// gauges are only scraped through the HTTP server of continuous mode
	if s.Metrics.Enabled && cfg.Monitor.Loop && cfg.HTTP.Enabled {
		sinks = append(sinks, sink.NewGauges())
	}
	if s.MQTT.Enabled {
		m, err := sink.NewMQTT(sink.MQTTConfig{
			Broker:         s.MQTT.Broker,
			ClientID:       s.MQTT.ClientID,
			Topic:          s.MQTT.Topic,
			QoS:            byte(s.MQTT.QoS),
			Retained:       s.MQTT.Retained,
			PublishTimeout: 5 * time.Second,
		}, logger)
		if err != nil {
			_ = sink.CloseAll(sinks)
			return nil, nil, err
		}
		sinks = append(sinks, m)
	}
	if s.Redis.Enabled {
		r, err := sink.NewRedis(ctx, sink.RedisConfig{
			Addr:        s.Redis.Addr,
			Password:    s.Redis.Password,
			DB:          s.Redis.DB,
			Channel:     s.Redis.Channel,
			ListKey:     s.Redis.ListKey,
			ListLen:     s.Redis.ListLen,
			DialTimeout: 5 * time.Second,
		})
		if err != nil {
			_ = sink.CloseAll(sinks)
			return nil, nil, fmt.Errorf("redis sink: %w", err)
		}
		sinks = append(sinks, r)
	}

	var hub *sink.Hub
	if cfg.HTTP.Enabled {
		hub = sink.NewHub(16)
		sinks = append(sinks, hub)
	}
	return sinks, hub, nil
}
