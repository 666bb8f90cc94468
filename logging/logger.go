package logging

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/pkg/paths"
	"github.com/grovetools/streamer-mode/util/pathutil"
)

// Section is the settings section holding Config.
const Section = "logging"

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	entry := newLogger(component, loadConfig())
	loggers[component] = entry
	return entry
}

// loadConfig reads the logging section of the global settings document.
func loadConfig() Config {
	var logCfg Config
	path := paths.GlobalSettingsPath()
	if path == "" {
		return logCfg
	}
	store, err := config.NewFileStore(path, "")
	if err != nil {
		logrus.Warnf("Failed to read settings for logging: %v", err)
		return logCfg
	}
	// Use UnmarshalSection to safely decode the logging part
	if err := config.UnmarshalSection(store, Section, &logCfg); err != nil {
		// Log a warning if parsing fails, but continue with defaults
		logrus.Warnf("Failed to parse 'logging' config: %v", err)
	}
	return logCfg
}

func newLogger(component string, logCfg Config) *logrus.Entry {
	logger := logrus.New()

	// Configure Level
	levelStr := "info" // Default level
	if os.Getenv("STREAMER_LOG_LEVEL") != "" {
		levelStr = os.Getenv("STREAMER_LOG_LEVEL")
	} else if logCfg.Level != "" {
		levelStr = logCfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Configure Caller Reporting
	if os.Getenv("STREAMER_LOG_CALLER") == "true" || logCfg.ReportCaller {
		logger.SetReportCaller(true)
	}

	// Configure Formatter
	switch logCfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: logCfg.Format})
	}

	// Configure Output Sinks
	var writers []io.Writer

	// The file sink defaults to a daily file per component under the state directory
	if !logCfg.File.Disabled {
		if logCfg.File.Path != "" {
			writers = append(writers, newFixedWriter(pathutil.MustExpand(logCfg.File.Path)))
		} else if dir := paths.LogDir(); dir != "" {
			writers = append(writers, newDailyWriter(dir, component))
		}
	}

	// Determine if we should write structured logs to stderr
	shouldLogToStderr := false
	stderrMode := "auto"
	if logCfg.Format.StructuredToStderr != "" {
		stderrMode = logCfg.Format.StructuredToStderr
	}

	switch stderrMode {
	case "always":
		shouldLogToStderr = true
	case "never":
		shouldLogToStderr = false
	case "auto":
		// "auto" mode: log to stderr if debug is enabled, or if not in an interactive terminal
		isDebug := os.Getenv("STREAMER_DEBUG") == "1" || logger.GetLevel() == logrus.DebugLevel
		isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		if isDebug || !isInteractive {
			shouldLogToStderr = true
		}
	}

	if shouldLogToStderr {
		writers = append(writers, GetGlobalOutput())
	}

	// Configure the output based on the number of writers
	if len(writers) == 0 {
		// Interactive terminals in auto mode without a file sink get no structured output
		logger.SetOutput(io.Discard)
	} else if len(writers) == 1 {
		logger.SetOutput(writers[0])
	} else {
		logger.SetOutput(io.MultiWriter(writers...))
	}

	return logger.WithField("component", component)
}

// SetLevel changes the level of every logger created so far.
func SetLevel(level logrus.Level) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, entry := range loggers {
		entry.Logger.SetLevel(level)
	}
}
