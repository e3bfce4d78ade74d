package mylog

import (
	"context"

	"github.com/sirupsen/logrus"
)

type logrusLogger struct {
	componentName string
}

func newLogrusLogger(componentName string) Logger {
	return logrusLogger{
		componentName: componentName,
	}
}

// SetDebug raises the process-wide log level so that SeverityDebug entries show up
func SetDebug(enabled bool) {
	if enabled {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

func (l logrusLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any) {
	entry := logrus.WithField("component", l.componentName)
	if traceLabel != "" {
		entry = entry.WithField("trace", traceLabel)
	}

	switch severity {
	case SeverityDebug:
		entry.Debugf(format, a...)
	case SeverityWarn:
		entry.Warnf(format, a...)
	case SeverityError:
		entry.Errorf(format, a...)
	default:
		entry.Infof(format, a...)
	}
}
