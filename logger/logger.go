package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	projectLogger *logrus.Logger
	loggerOnce    sync.Once
)

// GetProjectLogger returns the logger shared by every package in the project.
func GetProjectLogger() *logrus.Logger {
	loggerOnce.Do(func() {
		projectLogger = logrus.New()
		projectLogger.Out = os.Stderr
		projectLogger.Level = logrus.InfoLevel
		projectLogger.Formatter = &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		}
	})
	return projectLogger
}

// SetLevel parses a level name such as "debug" or "warn" and applies it to the project logger.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	GetProjectLogger().SetLevel(lvl)
	return nil
}
