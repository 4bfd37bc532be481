// Package sink delivers decoded measurements to their consumers.
//
// A Reading pairs a Measurement with the time the caller observed it; sinks
// never assign timestamps themselves.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/pmsense/internal/observability"
	"github.com/danmuck/pmsense/internal/protocol"
)

// Reading is a Measurement stamped by the caller.
type Reading struct {
	protocol.Measurement
	Time time.Time `json:"time"`
}

// Sink consumes readings.
type Sink interface {
	Name() string
	Write(ctx context.Context, r Reading) error
}

// Point is one value of a reading in time-series form.
type Point struct {
	Group string
	Field string
	Value uint16
	Time  time.Time
}

// Name is the dotted group.field key.
func (p Point) Name() string {
	return p.Group + "." + p.Field
}

// Points flattens r into one point per measurement field.
func Points(r Reading) []Point {
	m := r.Measurement
	pt := func(group, field string, v uint16) Point {
		return Point{Group: group, Field: field, Value: v, Time: r.Time}
	}
	return []Point{
		pt("pm_standard", "pm1", m.Standard.PM1),
		pt("pm_standard", "pm25", m.Standard.PM25),
		pt("pm_standard", "pm10", m.Standard.PM10),
		pt("pm_atmospheric", "pm1", m.Atmospheric.PM1),
		pt("pm_atmospheric", "pm25", m.Atmospheric.PM25),
		pt("pm_atmospheric", "pm10", m.Atmospheric.PM10),
		pt("particles", "gt_0_3um", m.Particles.Gt03um),
		pt("particles", "gt_0_5um", m.Particles.Gt05um),
		pt("particles", "gt_1_0um", m.Particles.Gt10um),
		pt("particles", "gt_2_5um", m.Particles.Gt25um),
		pt("particles", "gt_5_0um", m.Particles.Gt50um),
		pt("particles", "gt_10um", m.Particles.Gt100um),
	}
}

// Multi writes every reading to all of its sinks. A failing sink does not
// stop the others; failures are joined.
type Multi []Sink

func (m Multi) Name() string {
	return "multi"
}

func (m Multi) Write(ctx context.Context, r Reading) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, r); err != nil {
			observability.RecordSinkError(s.Name())
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Closer is implemented by sinks holding connections or files.
type Closer interface {
	Close() error
}

// CloseAll closes every sink that implements Closer.
func CloseAll(sinks []Sink) error {
	var errs []error
	for _, s := range sinks {
		if c, ok := s.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close sink %s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
