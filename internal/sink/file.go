package sink

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// FileTimeLayout is the timestamp prefix of every line in a File sink.
const FileTimeLayout = "2006-01-02 15:04:05.000000"

// File appends one line per reading:
//
//	2024-03-01 12:00:00.000000 pm1: 3 pm25: 5 pm10: 6
//
// The file is opened per write so log rotation needs no signal.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string {
	return "file"
}

func (f *File) Write(_ context.Context, r Reading) error {
	line := fmt.Sprintf("%s pm1: %d pm25: %d pm10: %d\n",
		r.Time.Format(FileTimeLayout), r.Standard.PM1, r.Standard.PM25, r.Standard.PM10)

	f.mu.Lock()
	defer f.mu.Unlock()
	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	if _, err := fh.WriteString(line); err != nil {
		_ = fh.Close()
		return fmt.Errorf("append %s: %w", f.path, err)
	}
	return fh.Close()
}
