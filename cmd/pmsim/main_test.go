package main

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/danmuck/pmsense/internal/protocol"
	"github.com/rs/zerolog"
)

func TestEmitFramesDecode(t *testing.T) {
	var buf bytes.Buffer
	opts := options{Interval: time.Millisecond, Count: 5, Noise: 6, Seed: 7}
	n, err := emit(context.Background(), &buf, opts, zerolog.Nop())
	if err != nil || n != 5 {
		t.Fatalf("emit: n=%d err=%v", n, err)
	}

	dec := protocol.NewDecoder(50 * time.Millisecond)
	r := bytes.NewReader(buf.Bytes())
	for i := 0; i < 5; i++ {
		m, err := dec.Measurement(r)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if m.Standard.PM1 > m.Standard.PM25 || m.Standard.PM25 > m.Standard.PM10 {
			t.Fatalf("frame %d out of order: %+v", i, m.Standard)
		}
	}
}

func TestEmitCorruptedFramesAreRejected(t *testing.T) {
	var buf bytes.Buffer
	opts := options{Interval: time.Millisecond, Count: 3, Corrupt: 1, Seed: 3}
	if _, err := emit(context.Background(), &buf, opts, zerolog.Nop()); err != nil {
		t.Fatalf("emit: %v", err)
	}

	dec := protocol.NewDecoder(50 * time.Millisecond)
	_, err := dec.Measurement(bytes.NewReader(buf.Bytes()))
	if err == nil {
		t.Fatalf("expected a decode error for a corrupted frame")
	}
	var se *protocol.SensorError
	if !errors.As(err, &se) {
		t.Fatalf("expected sensor error, got %v", err)
	}
}

func TestEmitStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := emit(ctx, &bytes.Buffer{}, options{Interval: time.Hour}, zerolog.Nop())
	if err != nil || n != 1 {
		t.Fatalf("expected one frame before cancel, n=%d err=%v", n, err)
	}
}

func TestNoiseNeverStartsAFrame(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		for _, b := range noise(rng, 32) {
			if b == protocol.StartOfFrame[0] {
				t.Fatalf("noise contains marker byte")
			}
		}
	}
}
