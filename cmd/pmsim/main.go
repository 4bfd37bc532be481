// Command pmsim emits synthetic sensor frames, either to a serial device
// (for looping back into pmsensectl through a null-modem pair) or to stdout.
package main

import (
	"context"
	"flag"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/pmsense/internal/device"
	"github.com/danmuck/pmsense/internal/observability"
	"github.com/danmuck/pmsense/internal/protocol"
	"github.com/rs/zerolog"
)

type options struct {
	Interval time.Duration
	Count    int
	Noise    int
	Corrupt  float64
	Seed     int64
}

func main() {
	var opts options
	dev := flag.String("device", "", "serial device to write to (stdout when empty)")
	baud := flag.Int("baud", 9600, "serial baud rate")
	flag.DurationVar(&opts.Interval, "interval", time.Second, "delay between frames")
	flag.IntVar(&opts.Count, "count", 0, "frames to emit, 0 for unlimited")
	flag.IntVar(&opts.Noise, "noise", 0, "max random bytes written before each frame")
	flag.Float64Var(&opts.Corrupt, "corrupt", 0, "probability of flipping a byte in a frame")
	flag.Int64Var(&opts.Seed, "seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	logger := observability.InitLogger("pmsim")

	var out io.Writer = os.Stdout
	if *dev != "" {
		cfg := device.DefaultConfig()
		cfg.Device = *dev
		cfg.Baud = *baud
		port, err := device.Open(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("open device")
		}
		defer port.Close()
		out = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := emit(ctx, out, opts, logger)
	if err != nil {
		logger.Error().Err(err).Int("frames", n).Msg("pmsim stopped")
		stop()
		os.Exit(1)
	}
	logger.Info().Int("frames", n).Msg("pmsim done")
}

// emit writes frames until Count is reached or ctx ends and returns how many
// were written.
func emit(ctx context.Context, w io.Writer, opts options, logger zerolog.Logger) (int, error) {
	rng := rand.New(rand.NewSource(opts.Seed))
	ticker := time.NewTicker(max(opts.Interval, time.Millisecond))
	defer ticker.Stop()

	written := 0
	for opts.Count == 0 || written < opts.Count {
		m := randomMeasurement(rng)
		buf := noise(rng, opts.Noise)
		frame := protocol.EncodeFrame(m)
		if opts.Corrupt > 0 && rng.Float64() < opts.Corrupt {
			// leave the marker intact so the frame is found and then rejected
			frame[2+rng.Intn(len(frame)-2)] ^= 0xFF
			logger.Debug().Msg("corrupted frame")
		}
		buf = append(buf, frame...)
		if _, err := w.Write(buf); err != nil {
			return written, err
		}
		written++
		logger.Debug().Uint16("pm25", m.Standard.PM25).Int("bytes", len(buf)).Msg("frame written")

		if opts.Count != 0 && written == opts.Count {
			break
		}
		select {
		case <-ctx.Done():
			return written, nil
		case <-ticker.C:
		}
	}
	return written, nil
}

func randomMeasurement(rng *rand.Rand) protocol.Measurement {
	pm1 := uint16(rng.Intn(40))
	pm25 := pm1 + uint16(rng.Intn(30))
	pm10 := pm25 + uint16(rng.Intn(30))
	return protocol.Measurement{
		Standard:    protocol.ParticulateMatter{PM1: pm1, PM25: pm25, PM10: pm10},
		Atmospheric: protocol.ParticulateMatter{PM1: pm1 * 2 / 3, PM25: pm25 * 2 / 3, PM10: pm10 * 2 / 3},
		Particles: protocol.ParticleCounts{
			Gt03um:  uint16(600 + rng.Intn(3000)),
			Gt05um:  uint16(200 + rng.Intn(800)),
			Gt10um:  uint16(20 + rng.Intn(200)),
			Gt25um:  uint16(rng.Intn(20)),
			Gt50um:  uint16(rng.Intn(5)),
			Gt100um: uint16(rng.Intn(2)),
		},
	}
}

// noise returns up to limit random bytes that never contain the frame marker.
func noise(rng *rand.Rand, limit int) []byte {
	if limit <= 0 {
		return nil
	}
	out := make([]byte, rng.Intn(limit+1))
	for i := range out {
		b := byte(rng.Intn(256))
		if b == protocol.StartOfFrame[0] {
			b = 0x00
		}
		out[i] = b
	}
	return out
}
