package util

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// SetLogLevel maps the LOG_LEVEL environment value onto the logger, defaulting to info
func SetLogLevel(logger *logrus.Logger, level string) {
	switch strings.ToLower(level) {
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
}
