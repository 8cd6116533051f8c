// Package logging builds the logrus logger shared by the CLI and the
// library packages.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options mirror the log settings of the CLI configuration.
type Options struct {
	Level  string
	Format string
	Out    io.Writer
}

// New returns a logger writing to opts.Out. Format is "text" or "json".
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()
	if opts.Out != nil {
		log.SetOutput(opts.Out)
	}

	level := opts.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log format %q: want text or json", opts.Format)
	}
	return log, nil
}

// Discard is a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}

// OrDiscard returns log, or a discarding logger when log is nil.
func OrDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return Discard()
	}
	return log
}
