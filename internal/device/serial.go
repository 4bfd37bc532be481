package device

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// Config describes the serial link to the sensor.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultConfig matches a PMS sensor on the Raspberry Pi primary UART.
func DefaultConfig() Config {
	return Config{
		Device:      "/dev/serial0",
		Baud:        9600,
		ReadTimeout: time.Second,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Device) == "" {
		return errors.New("serial device is required")
	}
	if c.Baud <= 0 {
		return errors.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.ReadTimeout <= 0 {
		return errors.Errorf("invalid read timeout %s", c.ReadTimeout)
	}
	return nil
}

// Port is an open serial link. Reads block for at most the configured read
// timeout and return zero bytes when nothing arrived. Close is safe to call
// more than once, which lets a shutdown goroutine interrupt a blocked read.
type Port struct {
	name string
	port *serial.Port

	closeOnce sync.Once
	closeErr  error
}

// Open opens the serial device in 8N1 mode.
func Open(cfg Config) (*Port, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid serial config")
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open port %v", cfg.Device)
	}
	return &Port{name: cfg.Device, port: p}, nil
}

func (p *Port) Name() string {
	return p.name
}

func (p *Port) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Flush discards buffered input so a fresh decode starts on live data.
func (p *Port) Flush() error {
	return errors.Wrapf(p.port.Flush(), "failed to flush port %v", p.name)
}

func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = errors.Wrapf(p.port.Close(), "failed to close port %v", p.name)
	})
	return p.closeErr
}
