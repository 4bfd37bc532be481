package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/pmsense/internal/config"
	"github.com/danmuck/pmsense/internal/device"
	"github.com/danmuck/pmsense/internal/monitor"
	"github.com/danmuck/pmsense/internal/observability"
	"github.com/danmuck/pmsense/internal/protocol"
	"github.com/danmuck/pmsense/internal/server"
	"github.com/danmuck/pmsense/internal/sink"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	var f flags
	flag.StringVar(&f.ConfigPath, "config", "", "path to a pmsense TOML config (defaults when empty)")
	flag.BoolVar(&f.Loop, "loop", false, "read continuously until interrupted")
	flag.StringVar(&f.Device, "device", "", "serial device, overrides the config")
	flag.Parse()

	logger := observability.InitLogger("pmsensectl")
	cfg, err := loadConfig(f.ConfigPath, f)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	applyLogLevel(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Str("kind", protocol.Kind(err).String()).Msg("pmsensectl stopped")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	port, err := device.Open(serialConfig(cfg))
	if err != nil {
		return err
	}
	defer port.Close()
	logger.Info().Str("device", port.Name()).Int("baud", cfg.Serial.Baud).Msg("serial port open")

	sinks, hub, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.CloseAll(sinks); err != nil {
			logger.Warn().Err(err).Msg("close sinks")
		}
	}()

	mon := monitor.New(port, protocol.NewDecoder(cfg.Decoder.ResponseDeadline.Duration), sink.Multi(sinks), monitorConfig(cfg), logger)

	if !cfg.Monitor.Loop {
		discardStale(port, logger)
		r, err := mon.Once(ctx)
		if err != nil {
			return err
		}
		logger.Info().
			Uint16("pm1", r.Standard.PM1).
			Uint16("pm25", r.Standard.PM25).
			Uint16("pm10", r.Standard.PM10).
			Msg("measurement")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mon.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		// closing the port unblocks a pending read
		if err := port.Close(); err != nil {
			return err
		}
		logger.Info().Msg("serial port closed")
		return nil
	})
	if hub != nil {
		srv := server.New(cfg.HTTP.Addr, cfg.HTTP.CorsOrigins, hub, logger)
		g.Go(func() error {
			return srv.Serve(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("monitor stopped")
	return nil
}
