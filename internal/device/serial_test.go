package device

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Baud != 9600 || cfg.ReadTimeout != time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{Device: " ", Baud: 9600, ReadTimeout: time.Second},
		{Device: "/dev/ttyUSB0", Baud: 0, ReadTimeout: time.Second},
		{Device: "/dev/ttyUSB0", Baud: 9600},
	}
	for i, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestOpenMissingDeviceNamesPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-tty")
	cfg := DefaultConfig()
	cfg.Device = missing

	_, err := Open(cfg)
	if err == nil {
		t.Fatalf("expected open error")
	}
	if !strings.Contains(err.Error(), missing) {
		t.Fatalf("error should name the device: %v", err)
	}
}
