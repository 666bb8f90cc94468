// Package process detects running streaming applications.
package process

import (
	"context"
	"strings"
	"unicode"

	gopsprocess "github.com/shirou/gopsutil/v4/process"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/streamer-mode/errors"
)

// DefaultApps are the lowercase name fragments of the streaming applications
// that are always looked for.
var DefaultApps = []string{"obs", "streamlabs", "xsplit"}

// Inspector lists the names of running processes.
type Inspector interface {
	ProcessNames(ctx context.Context) ([]string, error)
}

// SystemInspector enumerates the processes of the local machine.
type SystemInspector struct{}

// ProcessNames implements Inspector. Processes that exit while being listed
// or whose name cannot be read are skipped.
func (SystemInspector) ProcessNames(ctx context.Context) ([]string, error) {
	procs, err := gopsprocess.ProcessesWithContext(ctx)
	if err != nil {
		return nil, errors.ProcessInspectFailed(err)
	}

	names := make([]string, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Detector reports whether a streaming application is running.
type Detector struct {
	inspector Inspector
	logger    *logrus.Entry
}

// NewDetector returns a Detector using inspector. logger may be nil.
func NewDetector(inspector Inspector, logger *logrus.Entry) *Detector {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Detector{inspector: inspector, logger: logger}
}

// Detect reports whether any running process name contains one of the
// default application names or one of extra, ignoring case. Entries of extra
// that fail IsValidName are skipped.
func (d *Detector) Detect(ctx context.Context, extra []string) (bool, error) {
	apps := d.apps(extra)

	names, err := d.inspector.ProcessNames(ctx)
	if err != nil {
		if errors.GetCode(err) == "" && ctx.Err() == nil {
			err = errors.ProcessInspectFailed(err)
		}
		return false, err
	}

	for _, name := range names {
		lower := strings.ToLower(name)
		for _, app := range apps {
			if strings.Contains(lower, app) {
				d.logger.WithFields(logrus.Fields{"process": name, "match": app}).Debug("Streaming application detected")
				return true, nil
			}
		}
	}
	return false, nil
}

func (d *Detector) apps(extra []string) []string {
	apps := make([]string, 0, len(DefaultApps)+len(extra))
	apps = append(apps, DefaultApps...)
	for _, name := range extra {
		if !IsValidName(name) {
			d.logger.WithField("name", name).Warn("Ignoring invalid streaming application name")
			continue
		}
		apps = append(apps, strings.ToLower(strings.TrimSpace(name)))
	}
	return apps
}

// IsValidName reports whether name is usable as an application name: it must
// contain something other than spaces, and only letters, digits, spaces,
// dots, dashes and underscores.
func IsValidName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == ' ', r == '.', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
