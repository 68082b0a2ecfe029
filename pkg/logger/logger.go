package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
}

// NewLogger logs to stderr so query output on stdout stays clean.
func NewLogger(verbose bool) *Logger {
	return NewLoggerTo(os.Stderr, verbose)
}

func NewLoggerTo(w io.Writer, verbose bool) *Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   w == os.Stderr,
	})

	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Logger: log}
}

// Discard is a logger for tests and library callers that want silence.
func Discard() *Logger {
	return NewLoggerTo(io.Discard, false)
}

// WithPlatform tags entries with the backend they concern.
func (l *Logger) WithPlatform(name string) *logrus.Entry {
	return l.WithField("platform", name)
}
