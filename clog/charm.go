package clog

import (
	"os"

	"github.com/charmbracelet/log"
)

// charmProvider backs LogProvider with github.com/charmbracelet/log,
// giving leveled, timestamped, optionally colorized output. It is the
// provider NewPanelLogger installs; NewLogger keeps the teacher-style
// bare stdlib logger for callers that don't want the extra dependency.
type charmProvider struct {
	l *log.Logger
}

var _ LogProvider = charmProvider{}

func (sf charmProvider) Critical(format string, v ...interface{}) {
	sf.l.With("level", "critical").Errorf(format, v...)
}

func (sf charmProvider) Error(format string, v ...interface{}) {
	sf.l.Errorf(format, v...)
}

func (sf charmProvider) Warn(format string, v ...interface{}) {
	sf.l.Warnf(format, v...)
}

func (sf charmProvider) Debug(format string, v ...interface{}) {
	sf.l.Debugf(format, v...)
}

// NewPanelLogger creates a Clog backed by charmbracelet/log, tagged
// with the given session/component prefix (e.g. "engine", "filexfer").
func NewPanelLogger(prefix string) Clog {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	return Clog{
		provider: charmProvider{l: l},
		has:      1,
	}
}
