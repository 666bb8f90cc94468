package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/streamer-mode/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message matching the error's code and returns err unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	out := h.Out
	if out == nil {
		out = os.Stderr
	}

	streamerErr, _ := errors.AsStreamerError(err)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(out, "❌ Settings file not found. Run 'streamer-mode paths' to see where settings are read from.\n")

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(out, "❌ %v\n", err)
		fmt.Fprintf(out, "Run 'streamer-mode config validate' for details.\n")

	case errors.ErrCodeConfigWrite:
		if streamerErr != nil {
			fmt.Fprintf(out, "❌ Could not write %v to the %v settings\n", streamerErr.Details["key"], streamerErr.Details["scope"])
		} else {
			fmt.Fprintf(out, "❌ %v\n", err)
		}
		fmt.Fprintf(out, "Check that the settings file is writable.\n")

	case errors.ErrCodeProcessInspect:
		fmt.Fprintf(out, "❌ Could not list running processes: %v\n", err)

	case errors.ErrCodeInvalidInput:
		fmt.Fprintf(out, "❌ %v\n", err)

	default:
		fmt.Fprintf(out, "❌ Error: %v\n", err)
	}

	if h.Verbose && streamerErr != nil {
		fmt.Fprintf(out, "\nError details:\n%s\n", streamerErr.ToJSON())
	}
	return err
}
