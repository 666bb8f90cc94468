package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// dailyWriter is an io.WriteCloser that opens its file lazily and, when no
// fixed path is set, moves to a new <component>-<date>.log file when the date
// changes.
type dailyWriter struct {
	mu        sync.Mutex
	dir       string
	component string
	fixedPath string
	now       func() time.Time

	currentPath string
	writer      io.WriteCloser
}

// newDailyWriter writes to dir/<component>-<date>.log.
func newDailyWriter(dir, component string) *dailyWriter {
	return &dailyWriter{dir: dir, component: component, now: time.Now}
}

// newFixedWriter always writes to path.
func newFixedWriter(path string) *dailyWriter {
	return &dailyWriter{fixedPath: path, now: time.Now}
}

// Write implements the io.Writer interface.
func (w *dailyWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	writer, err := w.getWriter()
	if err != nil {
		// Log to stderr as a last resort
		fmt.Fprintf(os.Stderr, "streamer-mode: failed to open log file: %v\n", err)
		return 0, err
	}

	return writer.Write(p)
}

// Close implements the io.Closer interface.
func (w *dailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writer != nil {
		err := w.writer.Close()
		w.writer = nil
		return err
	}
	return nil
}

// Path returns the file the next write goes to.
func (w *dailyWriter) Path() string {
	if w.fixedPath != "" {
		return w.fixedPath
	}
	return LogFilePath(w.dir, w.component, w.now())
}

func (w *dailyWriter) getWriter() (io.WriteCloser, error) {
	path := w.Path()
	if w.writer != nil && path != w.currentPath {
		w.writer.Close()
		w.writer = nil
	}

	if w.writer == nil {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		w.writer = file
		w.currentPath = path
	}

	return w.writer, nil
}

// LogFilePath returns the daily log file of component for the given day.
func LogFilePath(dir, component string, day time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.log", component, day.Format("2006-01-02")))
}
