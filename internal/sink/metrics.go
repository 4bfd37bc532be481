package sink

import (
	"context"

	"github.com/danmuck/pmsense/internal/observability"
)

// Gauges exposes the latest reading as prometheus gauges.
type Gauges struct{}

func NewGauges() *Gauges {
	observability.RegisterMetrics()
	return &Gauges{}
}

func (g *Gauges) Name() string {
	return "metrics"
}

func (g *Gauges) Write(_ context.Context, r Reading) error {
	for _, p := range Points(r) {
		observability.SetReading(p.Group, p.Field, float64(p.Value), p.Time)
	}
	return nil
}
