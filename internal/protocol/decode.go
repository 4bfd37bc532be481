package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// Decoder turns a byte source into Measurements. It keeps configuration only;
// every call to Measurement is independent.
type Decoder struct {
	ResponseDeadline time.Duration

	now func() time.Time
}

// NewDecoder returns a Decoder; a non-positive deadline selects DefaultResponseDeadline.
func NewDecoder(responseDeadline time.Duration) *Decoder {
	if responseDeadline <= 0 {
		responseDeadline = DefaultResponseDeadline
	}
	return &Decoder{ResponseDeadline: responseDeadline, now: time.Now}
}

// Measurement synchronizes on the start marker, reads one frame, verifies it
// and parses it. The first failing stage's error is returned unchanged.
func (d *Decoder) Measurement(r io.Reader) (Measurement, error) {
	if err := WaitForMarker(r, StartOfFrame[:], d.ResponseDeadline, d.now); err != nil {
		return Measurement{}, err
	}
	frame, err := ReadFrame(r)
	if err != nil {
		return Measurement{}, err
	}
	if err := VerifyChecksum(frame); err != nil {
		return Measurement{}, err
	}
	return Parse(frame)
}

// WaitForMarker consumes bytes one at a time until marker has been seen.
//
// A zero-length read (including io.EOF, which is how a timed out serial read
// surfaces) keeps the match progress. A source that keeps returning nothing
// without blocking (a pipe at EOF, an unplugged adapter) is polled every
// idlePause after idleReadLimit empty reads in a row instead of spinning.
// Once the time spent reading reaches deadline the call fails with a
// NoFrameReceived SensorError.
func WaitForMarker(r io.Reader, marker []byte, deadline time.Duration, now func() time.Time) error {
	if len(marker) == 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}

	var b [1]byte
	idx := 0
	idle := 0
	start := now()
	for now().Sub(start) < deadline {
		n, err := r.Read(b[:])
		if n == 0 {
			idle++
			if idle >= idleReadLimit {
				time.Sleep(idlePause)
			}
		} else {
			idle = 0
		}
		if n == 1 {
			switch {
			case b[0] == marker[idx]:
				idx++
				if idx == len(marker) {
					return nil
				}
			case b[0] == marker[0]:
				idx = 1
			default:
				idx = 0
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("protocol: read marker: %w", err)
		}
	}
	return noFrameReceived(deadline)
}

// ReadFrame reads the length field and exactly that many bytes after it.
// It expects the start marker to be consumed already.
func ReadFrame(r io.Reader) (Frame, error) {
	var head [lengthFieldSize]byte
	n, err := readAvailable(r, head[:])
	if err != nil {
		return nil, err
	}
	if n < lengthFieldSize {
		return nil, shortFrame(lengthFieldSize, n)
	}

	length := int(Frame(head[:]).Length())
	frame := make(Frame, lengthFieldSize+length)
	copy(frame, head[:])
	n, err = readAvailable(r, frame[lengthFieldSize:])
	if err != nil {
		return nil, err
	}
	if n < length {
		return nil, shortFrame(length, n)
	}
	return frame, nil
}

// VerifyChecksum compares the trailing checksum against the marker plus
// every frame byte before it, modulo 2^16.
func VerifyChecksum(f Frame) error {
	if len(f) < lengthFieldSize+checksumFieldSize {
		return malformedPayload(checksumFieldSize, len(f)-lengthFieldSize)
	}
	body := f[:len(f)-checksumFieldSize]
	expected := binary.BigEndian.Uint16(f[len(f)-checksumFieldSize:])
	actual := Checksum(StartOfFrame[:], body)
	if actual != expected {
		return checksumMismatch(expected, actual)
	}
	return nil
}

// readAvailable fills buf until it is full or the source has nothing more to
// give (a zero-length read or io.EOF).
func readAvailable(r io.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, fmt.Errorf("protocol: read frame: %w", err)
		}
		if n == 0 {
			return total, nil
		}
	}
	return total, nil
}
