// Package logger wraps logrus with the fields FinSense tags its entries with:
// component, run id for CLI invocations, and request metadata for the API.
package logger

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Entry
}

// New logs to stderr so stdout stays free for command output.
func New() *Logger {
	return NewWithOutput(os.Stderr)
}

// NewWithOutput honours ENVIRONMENT (empty or "local" = text, anything else = JSON) and
// LOG_LEVEL (debug, info, warn, error; default info).
func NewWithOutput(w io.Writer) *Logger {
	base := logrus.New()
	base.SetFormatter(formatter(os.Getenv("ENVIRONMENT")))
	base.SetOutput(w)
	base.SetLevel(level(os.Getenv("LOG_LEVEL")))
	return &Logger{Entry: logrus.NewEntry(base)}
}

func formatter(env string) logrus.Formatter {
	if env == "" || env == "local" {
		return &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		}
	}
	return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
}

func level(s string) logrus.Level {
	switch s {
	case "debug", "warn", "error":
		lvl, _ := logrus.ParseLevel(s)
		return lvl
	}
	return logrus.InfoLevel
}

// Discard drops everything. Tests use it.
func Discard() *Logger {
	return NewWithOutput(io.Discard)
}

func (l *Logger) Component(name string) *Logger {
	return &Logger{Entry: l.Entry.WithField("component", name)}
}

// WithRun tags every entry with a fresh run id and returns it.
func (l *Logger) WithRun() (*Logger, string) {
	runID := uuid.NewString()
	return &Logger{Entry: l.Entry.WithField("run_id", runID)}, runID
}

// WithRequest attaches request metadata; X-Request-ID is reused when the caller sent one.
func (l *Logger) WithRequest(r *http.Request) *logrus.Entry {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	return l.WithFields(logrus.Fields{
		"req_id":     reqID,
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote_ip":  r.RemoteAddr,
		"user_agent": r.UserAgent(),
	})
}

// WithError returns the plain entry for a nil error.
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}
