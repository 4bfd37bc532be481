package protocol

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoFrameReceived  = errors.New("protocol: no frame received")
	ErrShortFrame       = errors.New("protocol: short frame")
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
	ErrMalformedPayload = errors.New("protocol: malformed payload")
)

// ErrorKind tags a SensorError.
type ErrorKind int

const (
	KindNoFrameReceived ErrorKind = iota + 1
	KindShortFrame
	KindChecksumMismatch
	KindMalformedPayload
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoFrameReceived:
		return "no_frame_received"
	case KindShortFrame:
		return "short_frame"
	case KindChecksumMismatch:
		return "checksum_mismatch"
	case KindMalformedPayload:
		return "malformed_payload"
	default:
		return "unknown"
	}
}

// SensorError is a failed decode attempt. It is scoped to one attempt and
// never implies the byte source is unusable.
//
// Expected/Actual hold byte counts for ShortFrame and MalformedPayload and
// checksum values for ChecksumMismatch. Deadline is set for NoFrameReceived.
type SensorError struct {
	Kind     ErrorKind
	Deadline time.Duration
	Expected int
	Actual   int
}

func (e *SensorError) Error() string {
	switch e.Kind {
	case KindNoFrameReceived:
		return fmt.Sprintf("%v for %s", ErrNoFrameReceived, e.Deadline)
	case KindShortFrame:
		return fmt.Sprintf("%v: expected %d bytes, got %d", ErrShortFrame, e.Expected, e.Actual)
	case KindChecksumMismatch:
		return fmt.Sprintf("%v: computed %d != received %d", ErrChecksumMismatch, e.Actual, e.Expected)
	case KindMalformedPayload:
		return fmt.Sprintf("%v: expected %d payload bytes, got %d", ErrMalformedPayload, e.Expected, e.Actual)
	default:
		return "protocol: sensor error"
	}
}

func (e *SensorError) Unwrap() error {
	switch e.Kind {
	case KindNoFrameReceived:
		return ErrNoFrameReceived
	case KindShortFrame:
		return ErrShortFrame
	case KindChecksumMismatch:
		return ErrChecksumMismatch
	case KindMalformedPayload:
		return ErrMalformedPayload
	default:
		return nil
	}
}

// Retryable reports whether a fresh decode cycle can be expected to succeed.
// A malformed payload points at a protocol/version mismatch.
func (e *SensorError) Retryable() bool {
	return e.Kind != KindMalformedPayload
}

func noFrameReceived(deadline time.Duration) error {
	return &SensorError{Kind: KindNoFrameReceived, Deadline: deadline}
}

func shortFrame(expected, actual int) error {
	return &SensorError{Kind: KindShortFrame, Expected: expected, Actual: actual}
}

func checksumMismatch(expected, actual uint16) error {
	return &SensorError{Kind: KindChecksumMismatch, Expected: int(expected), Actual: int(actual)}
}

func malformedPayload(expected, actual int) error {
	return &SensorError{Kind: KindMalformedPayload, Expected: expected, Actual: actual}
}

// Kind returns the SensorError kind carried by err, or 0.
func Kind(err error) ErrorKind {
	var se *SensorError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
