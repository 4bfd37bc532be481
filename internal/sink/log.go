package sink

import (
	"context"

	"github.com/rs/zerolog"
)

// Log writes each reading as one structured log line.
type Log struct {
	logger zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Name() string {
	return "log"
}

func (l *Log) Write(_ context.Context, r Reading) error {
	l.logger.Info().
		Time("observed", r.Time).
		Uint16("pm1", r.Standard.PM1).
		Uint16("pm25", r.Standard.PM25).
		Uint16("pm10", r.Standard.PM10).
		Uint16("pm1_atm", r.Atmospheric.PM1).
		Uint16("pm25_atm", r.Atmospheric.PM25).
		Uint16("pm10_atm", r.Atmospheric.PM10).
		Uint16("gt_0_3um", r.Particles.Gt03um).
		Msg("measurement")
	return nil
}
