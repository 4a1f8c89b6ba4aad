package logfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// Writer appends arrival entries to a per-endpoint log file. Single writer
// (the owning runner), so no locking. A write failure loses the audit trail
// and is treated as fatal by the caller.
type Writer struct {
	f *os.File
	w *bufio.Writer
}

// Open creates (or appends to) <dir>/<name>.log.
func Open(dir, name string) (*Writer, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// WriteEntry appends one "timestamp label signature" line.
func (w *Writer) WriteEntry(timestamp float64, label, signature string) error {
	if _, err := fmt.Fprintf(w.w, "%.6f\t%s\t%s\n", timestamp, label, signature); err != nil {
		return fmt.Errorf("write log entry: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("flush log file: %w", err)
	}
	return w.f.Close()
}
