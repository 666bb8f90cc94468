package logging

import (
	"context"
	"io"
	"os"
	"sync"
)

// swappableWriter delegates to a writer that can be replaced at runtime.
type swappableWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (sw *swappableWriter) Write(p []byte) (int, error) {
	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.w.Write(p)
}

func (sw *swappableWriter) set(w io.Writer) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.w = w
}

var stderrOutput = &swappableWriter{w: os.Stderr}

// SetGlobalOutput redirects the stderr sink of every logger and the default
// destination of user notices. Tests use it to capture output.
func SetGlobalOutput(w io.Writer) {
	stderrOutput.set(w)
}

// GetGlobalOutput returns the shared stderr sink.
func GetGlobalOutput() io.Writer {
	return stderrOutput
}

type writerKey struct{}

// WithWriter returns a context whose user notices go to w.
func WithWriter(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, writerKey{}, w)
}

// GetWriter returns the notice writer carried by ctx, or the global output.
func GetWriter(ctx context.Context) io.Writer {
	if ctx != nil {
		if w, ok := ctx.Value(writerKey{}).(io.Writer); ok && w != nil {
			return w
		}
	}
	return GetGlobalOutput()
}
