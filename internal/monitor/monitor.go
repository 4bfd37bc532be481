// Package monitor drives the decoder against an owned byte source and hands
// readings to sinks, either once or until its context is cancelled.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/danmuck/pmsense/internal/observability"
	"github.com/danmuck/pmsense/internal/protocol"
	"github.com/danmuck/pmsense/internal/sink"
	"github.com/rs/zerolog"
)

// Config holds the continuous-mode retry policy.
type Config struct {
	Backoff BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// Monitor is the single reader of its source. It does not close the source;
// the owner closes it to interrupt a blocked read.
type Monitor struct {
	source  io.Reader
	decoder *protocol.Decoder
	out     sink.Sink
	cfg     Config
	logger  zerolog.Logger

	now func() time.Time
	rng *rand.Rand
}

func New(source io.Reader, decoder *protocol.Decoder, out sink.Sink, cfg Config, logger zerolog.Logger) *Monitor {
	return &Monitor{
		source:  source,
		decoder: decoder,
		out:     out,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Once performs one decode cycle and writes the reading to the sinks. Decoder
// errors are returned unchanged.
func (m *Monitor) Once(ctx context.Context) (sink.Reading, error) {
	r, err := m.read()
	if err != nil {
		return sink.Reading{}, err
	}
	if err := m.out.Write(ctx, r); err != nil {
		return r, fmt.Errorf("monitor: write reading: %w", err)
	}
	return r, nil
}

// Run loops decode and emit until ctx is cancelled, which returns nil. Every
// decode failure is logged and retried after a backoff. A source that reports
// itself closed while ctx is live ends the loop with an error.
func (m *Monitor) Run(ctx context.Context) error {
	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		r, err := m.read()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, os.ErrClosed) {
				return fmt.Errorf("monitor: source closed: %w", err)
			}
			failures++
			delay := NextBackoffDelay(m.cfg.Backoff, failures, m.rng)
			m.logFailure(err, failures, delay)
			if !sleep(ctx, delay) {
				return nil
			}
			continue
		}

		failures = 0
		if err := m.out.Write(ctx, r); err != nil {
			m.logger.Warn().Err(err).Msg("sink write failed")
		}
	}
}

func (m *Monitor) read() (sink.Reading, error) {
	start := m.now()
	meas, err := m.decoder.Measurement(m.source)
	elapsed := m.now().Sub(start)
	if err != nil {
		observability.RecordDecode(resultLabel(err), elapsed)
		return sink.Reading{}, err
	}
	observability.RecordDecode("ok", elapsed)
	return sink.Reading{Measurement: meas, Time: m.now()}, nil
}

func (m *Monitor) logFailure(err error, failures int, delay time.Duration) {
	var se *protocol.SensorError
	if !errors.As(err, &se) {
		m.logger.Error().Err(err).Int("failures", failures).Dur("retry_in", delay).Msg("source read failed")
		return
	}
	event := m.logger.Warn()
	if !se.Retryable() {
		event = m.logger.Error()
	}
	event.Err(err).
		Str("kind", se.Kind.String()).
		Int("failures", failures).
		Dur("retry_in", delay).
		Msg("decode failed")
}

func resultLabel(err error) string {
	if k := protocol.Kind(err); k != 0 {
		return k.String()
	}
	return "read_error"
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
