package logging

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/sirupsen/logrus"
)

// Icons used in user-facing output.
const (
	IconSuccess = "✓"
	IconInfo    = "ℹ"
	IconWarning = "⚠"
	IconError   = "✗"
	IconBullet  = "•"
)

// ansiRegex matches ANSI escape sequences for stripping
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// UnifiedLogger writes each message twice: styled for the user and as a
// structured log entry.
type UnifiedLogger struct {
	component  string
	structured *logrus.Entry
	styles     PrettyStyles
	out        io.Writer
}

// NewUnifiedLogger creates a new unified logger for a specific component.
func NewUnifiedLogger(component string) *UnifiedLogger {
	return &UnifiedLogger{
		component:  component,
		structured: NewLogger(component),
		styles:     DefaultPrettyStyles(),
	}
}

// WithOutput sends notices to w instead of the global output.
func (u *UnifiedLogger) WithOutput(w io.Writer) *UnifiedLogger {
	u.out = w
	return u
}

func (u *UnifiedLogger) noticeContext() context.Context {
	if u.out == nil {
		return context.Background()
	}
	return WithWriter(context.Background(), u.out)
}

// Info returns a LogEntry at INFO level.
func (u *UnifiedLogger) Info(msg string) *LogEntry {
	return u.entry(msg, logrus.InfoLevel, IconInfo)
}

// Warn returns a LogEntry at WARN level.
func (u *UnifiedLogger) Warn(msg string) *LogEntry {
	return u.entry(msg, logrus.WarnLevel, IconWarning)
}

// Error returns a LogEntry at ERROR level.
func (u *UnifiedLogger) Error(msg string) *LogEntry {
	return u.entry(msg, logrus.ErrorLevel, IconError)
}

// Success returns a LogEntry at INFO level with status=success.
func (u *UnifiedLogger) Success(msg string) *LogEntry {
	e := u.entry(msg, logrus.InfoLevel, IconSuccess)
	e.fields["status"] = "success"
	return e
}

func (u *UnifiedLogger) entry(msg string, level logrus.Level, icon string) *LogEntry {
	return &LogEntry{
		logger: u,
		msg:    msg,
		level:  level,
		icon:   icon,
		fields: logrus.Fields{},
	}
}

// Notify shows message to the user and records it.
func (u *UnifiedLogger) Notify(message string) {
	u.Info(message).Log(u.noticeContext())
}

// NotifyError shows an error message to the user and records it.
func (u *UnifiedLogger) NotifyError(message string) {
	u.Error(message).Log(u.noticeContext())
}

// Component returns the component name for this logger.
func (u *UnifiedLogger) Component() string {
	return u.component
}

// WithStructured returns the underlying logrus entry.
func (u *UnifiedLogger) WithStructured() *logrus.Entry {
	return u.structured
}

// LogEntry accumulates options before writing to both outputs.
type LogEntry struct {
	logger     *UnifiedLogger
	msg        string
	level      logrus.Level
	fields     logrus.Fields
	icon       string
	structOnly bool
}

// Field adds a structured field (chainable).
func (e *LogEntry) Field(key string, value interface{}) *LogEntry {
	e.fields[key] = value
	return e
}

// Err attaches an error to the structured output (chainable).
func (e *LogEntry) Err(err error) *LogEntry {
	if err != nil {
		e.fields["error"] = err.Error()
	}
	return e
}

// StructuredOnly skips the user-facing output (chainable).
func (e *LogEntry) StructuredOnly() *LogEntry {
	e.structOnly = true
	return e
}

// Log writes the entry. User-facing output goes to the writer carried by ctx.
func (e *LogEntry) Log(ctx context.Context) {
	pretty := e.render()
	if !e.structOnly {
		fmt.Fprintln(GetWriter(ctx), pretty)
	}

	e.fields["pretty_text"] = ansiRegex.ReplaceAllString(pretty, "")
	e.logger.structured.WithFields(e.fields).Log(e.level, e.msg)
}

func (e *LogEntry) render() string {
	styles := e.logger.styles
	output := e.icon + " " + e.msg
	switch e.level {
	case logrus.WarnLevel:
		return styles.Warning.Render(output)
	case logrus.ErrorLevel:
		return styles.Error.Render(output)
	}
	if e.icon == IconSuccess {
		return styles.Success.Render(output)
	}
	return styles.Info.Render(output)
}
