package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns the process logger. Output goes to stderr so the boxed terminal
// UI on stdout stays clean; an unparseable level falls back to info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableQuote: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
