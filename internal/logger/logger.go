// Package logger provides the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var once sync.Once
var logger *logrus.Logger

// GetLogger returns a singleton logger configured for privategpt.
func GetLogger() *logrus.Logger {
	// Singleton so the level can be updated once config is loaded
	once.Do(func() {
		logger = logrus.New()

		logger.Out = os.Stderr
		logger.SetLevel(logrus.InfoLevel)

		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: false,
			FullTimestamp: true,
			PadLevelText:  true,
		})
	})

	return logger
}

func SetLogLevel(level logrus.Level) {
	GetLogger().SetLevel(level)
}

// SetLevelFromString parses a level name such as "debug" or "warn".
// Unknown names leave the level unchanged and return the parse error.
func SetLevelFromString(level string) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return err
	}
	SetLogLevel(lvl)
	return nil
}

// SetOutput redirects log output. The terminal UI uses this to keep log
// lines from tearing the screen.
func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}
