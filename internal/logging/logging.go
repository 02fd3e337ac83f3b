package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// New creates the process logger. Verbose enables debug output.
func New(out io.Writer, format string, verbose bool) (*logrus.Logger, error) {
	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.Out = out

	switch format {
	case FormatJSON, "":
		logger.Formatter = &logrus.JSONFormatter{}
	case FormatText:
		logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	logger.Level = logrus.InfoLevel
	if verbose {
		logger.Level = logrus.DebugLevel
	}

	return logger, nil
}

// Discard returns a logger that drops everything, for tests
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	return logger
}
