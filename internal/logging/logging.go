// Package logging builds the process logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing JSON in production and text elsewhere. An
// unknown level falls back to info.
func New(env, level string) *logrus.Logger {
	return NewWithOutput(os.Stdout, env, level)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(w io.Writer, env, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	if env == "production" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}
